package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hackinvite/internal/domain"
)

type hackathonRepository struct {
	DB *sql.DB
}

func NewHackathonRepository(db *sql.DB) domain.HackathonRepository {
	return &hackathonRepository{
		DB: db,
	}
}

func (r *hackathonRepository) Create(ctx context.Context, h *domain.Hackathon) error {
	query := `
		INSERT INTO hackathons (creator_id, name, description, min_participants, max_participants, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		h.CreatorID, h.Name, h.Description, h.MinParticipants, h.MaxParticipants, h.CoverURL, h.CreatedAt, h.UpdatedAt).
		Scan(&h.ID)
}

const hackathonColumns = `id, creator_id, name, description, min_participants, max_participants, cover_url, created_at, updated_at`

func scanHackathon(row interface{ Scan(...any) error }) (*domain.Hackathon, error) {
	h := &domain.Hackathon{}
	var coverNull sql.NullString
	err := row.Scan(&h.ID, &h.CreatorID, &h.Name, &h.Description,
		&h.MinParticipants, &h.MaxParticipants, &coverNull, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.CoverURL = coverNull.String
	return h, nil
}

func (r *hackathonRepository) GetByID(ctx context.Context, id string) (*domain.Hackathon, error) {
	query := `
		SELECT ` + hackathonColumns + `
		FROM hackathons
		WHERE id = $1
	`
	h, err := scanHackathon(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *hackathonRepository) List(ctx context.Context) ([]*domain.Hackathon, error) {
	query := `
		SELECT ` + hackathonColumns + `
		FROM hackathons
		ORDER BY created_at DESC
	`
	return r.queryHackathons(ctx, query)
}

func (r *hackathonRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Hackathon, error) {
	query := `
		SELECT DISTINCT h.id, h.creator_id, h.name, h.description, h.min_participants, h.max_participants, h.cover_url, h.created_at, h.updated_at
		FROM hackathons h
		LEFT JOIN hackathon_participants hp ON hp.hackathon_id = h.id
		WHERE h.creator_id = $1 OR hp.user_id = $1
		ORDER BY h.created_at DESC
	`
	return r.queryHackathons(ctx, query, userID)
}

func (r *hackathonRepository) queryHackathons(ctx context.Context, query string, args ...any) ([]*domain.Hackathon, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hacks := make([]*domain.Hackathon, 0)
	for rows.Next() {
		h, err := scanHackathon(rows)
		if err != nil {
			return nil, err
		}
		hacks = append(hacks, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hacks, nil
}

func (r *hackathonRepository) Update(ctx context.Context, id string, name, description *string, minParticipants, maxParticipants *int, coverURL *string) (*domain.Hackathon, error) {
	query := `
		UPDATE hackathons
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    min_participants = COALESCE($4, min_participants),
		    max_participants = COALESCE($5, max_participants),
		    cover_url = COALESCE($6, cover_url),
		    updated_at = $7
		WHERE id = $1
		RETURNING ` + hackathonColumns + `
	`
	h, err := scanHackathon(r.DB.QueryRowContext(ctx, query,
		id, name, description, minParticipants, maxParticipants, coverURL, time.Now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *hackathonRepository) AddParticipant(ctx context.Context, hackathonID, userID string) error {
	query := `
		INSERT INTO hackathon_participants (hackathon_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, hackathonID, userID)
	return err
}

func (r *hackathonRepository) RemoveParticipant(ctx context.Context, hackathonID, userID string) error {
	query := `
		DELETE FROM hackathon_participants
		WHERE hackathon_id = $1 AND user_id = $2
	`
	res, err := r.DB.ExecContext(ctx, query, hackathonID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *hackathonRepository) ListParticipants(ctx context.Context, hackathonID string) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.is_organizer, u.created_at, u.updated_at
		FROM hackathon_participants hp
		JOIN users u ON u.id = hp.user_id
		WHERE hp.hackathon_id = $1
		ORDER BY u.email
	`
	rows, err := r.DB.QueryContext(ctx, query, hackathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.IsOrganizer, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *hackathonRepository) IsParticipant(ctx context.Context, hackathonID, userID string) (bool, error) {
	query := `
		SELECT 1
		FROM hackathon_participants
		WHERE hackathon_id = $1 AND user_id = $2
		LIMIT 1
	`
	var one int
	err := r.DB.QueryRowContext(ctx, query, hackathonID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

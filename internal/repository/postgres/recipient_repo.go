package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hackinvite/internal/domain"
)

type recipientRepository struct {
	DB *sql.DB
}

// NewRecipientRepository returns a domain.RecipientRepository implemented with Postgres.
func NewRecipientRepository(db *sql.DB) domain.RecipientRepository {
	return &recipientRepository{DB: db}
}

// GetOrCreate upserts on the unique email column. The DO UPDATE arm is a
// no-op value-wise but makes RETURNING yield the row on conflict too, so
// concurrent calls with the same email converge on one row.
func (r *recipientRepository) GetOrCreate(ctx context.Context, email string) (*domain.Recipient, error) {
	query := `
		INSERT INTO recipients (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at
	`
	rec := &domain.Recipient{}
	if err := r.DB.QueryRowContext(ctx, query, email).Scan(&rec.ID, &rec.Email, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *recipientRepository) LinkToHackathon(ctx context.Context, hackathonID, recipientID string) error {
	query := `
		INSERT INTO hackathon_recipients (hackathon_id, recipient_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, hackathonID, recipientID)
	return err
}

func (r *recipientRepository) ListByHackathonID(ctx context.Context, hackathonID, search string, params domain.PaginationParams) ([]*domain.Recipient, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM recipients rec
		JOIN hackathon_recipients hr ON hr.recipient_id = rec.id
		WHERE hr.hackathon_id = $1 AND ($2 = '' OR rec.email ILIKE '%' || $2 || '%')
	`
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, hackathonID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT rec.id, rec.email, rec.created_at
		FROM recipients rec
		JOIN hackathon_recipients hr ON hr.recipient_id = rec.id
		WHERE hr.hackathon_id = $1 AND ($2 = '' OR rec.email ILIKE '%' || $2 || '%')
		ORDER BY rec.email ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, hackathonID, search, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []*domain.Recipient
	for rows.Next() {
		rec := &domain.Recipient{}
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if recs == nil {
		recs = []*domain.Recipient{}
	}
	return recs, total, nil
}

func (r *recipientRepository) IsLinked(ctx context.Context, hackathonID, email string) (bool, error) {
	query := `
		SELECT 1
		FROM recipients rec
		JOIN hackathon_recipients hr ON hr.recipient_id = rec.id
		WHERE hr.hackathon_id = $1 AND rec.email = $2
		LIMIT 1
	`
	var one int
	err := r.DB.QueryRowContext(ctx, query, hackathonID, email).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

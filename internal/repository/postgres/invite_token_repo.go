package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"hackinvite/internal/domain"
)

type inviteTokenRepository struct {
	DB *sql.DB
}

// NewInviteTokenRepository returns a domain.InviteTokenRepository implemented with Postgres.
func NewInviteTokenRepository(db *sql.DB) domain.InviteTokenRepository {
	return &inviteTokenRepository{DB: db}
}

func (r *inviteTokenRepository) Create(ctx context.Context, t *domain.InviteToken) error {
	query := `
		INSERT INTO invite_tokens (opaque_value, hackathon_id, email, confirmation_code, issued_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		t.OpaqueValue, t.HackathonID, t.Email, t.ConfirmationCode, t.IssuedAt, t.Active).
		Scan(&t.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (r *inviteTokenRepository) GetByValue(ctx context.Context, opaqueValue string) (*domain.InviteToken, error) {
	query := `
		SELECT id, opaque_value, hackathon_id, email, confirmation_code, issued_at, active
		FROM invite_tokens
		WHERE opaque_value = $1
	`
	t := &domain.InviteToken{}
	err := r.DB.QueryRowContext(ctx, query, opaqueValue).
		Scan(&t.ID, &t.OpaqueValue, &t.HackathonID, &t.Email, &t.ConfirmationCode, &t.IssuedAt, &t.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// TryInvalidate flips active to false for the given opaque value. The WHERE
// clause makes the read-and-flip a single storage-level compare-and-set, so
// concurrent redemption attempts on the same token see exactly one success.
func (r *inviteTokenRepository) TryInvalidate(ctx context.Context, opaqueValue string) (bool, error) {
	query := `
		UPDATE invite_tokens
		SET active = FALSE
		WHERE opaque_value = $1 AND active = TRUE
	`
	res, err := r.DB.ExecContext(ctx, query, opaqueValue)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *inviteTokenRepository) FindActiveByEmailAndCode(ctx context.Context, email, code string) (*domain.InviteToken, error) {
	query := `
		SELECT id, opaque_value, hackathon_id, email, confirmation_code, issued_at, active
		FROM invite_tokens
		WHERE email = $1 AND confirmation_code = $2 AND confirmation_code <> '' AND active = TRUE
		ORDER BY issued_at DESC
		LIMIT 1
	`
	t := &domain.InviteToken{}
	err := r.DB.QueryRowContext(ctx, query, email, code).
		Scan(&t.ID, &t.OpaqueValue, &t.HackathonID, &t.Email, &t.ConfirmationCode, &t.IssuedAt, &t.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

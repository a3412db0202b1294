package domain

import (
	"context"
	"strings"
	"time"
)

// Recipient is an invited email address. Recipients are shared across
// hackathons; a hackathon's invite list is the set of recipients linked
// to it. Recipients are never deleted.
type Recipient struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail canonicalizes an email address for storage and comparison:
// surrounding whitespace is trimmed and the address is lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RecipientRepository is the deduplicating directory of invited emails.
// GetOrCreate and LinkToHackathon are idempotent; concurrent calls with the
// same normalized email must not create duplicate rows.
type RecipientRepository interface {
	// GetOrCreate looks up or inserts the recipient for the given email.
	// The email must already be normalized.
	GetOrCreate(ctx context.Context, email string) (*Recipient, error)
	// LinkToHackathon records that the recipient was invited to the
	// hackathon. Linking twice is a no-op.
	LinkToHackathon(ctx context.Context, hackathonID, recipientID string) error
	ListByHackathonID(ctx context.Context, hackathonID, search string, params PaginationParams) ([]*Recipient, int, error)
	// IsLinked reports whether the email is on the hackathon's invite list.
	IsLinked(ctx context.Context, hackathonID, email string) (bool, error)
}

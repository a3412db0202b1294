package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for invitation token handling.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrDuplicateToken   = errors.New("token already exists")
	ErrTokenAlreadyUsed = errors.New("token already used")
	ErrWrongHackathon   = errors.New("token issued for another hackathon")
)

// InviteClaims is the claim set embedded in an invitation token.
// HackathonID, Email and IssuedAt are always present. Sequence is set only
// for tokens minted as part of an ordered batch. ConfirmationCode is set
// only for confirmation-code tokens.
type InviteClaims struct {
	HackathonID      string
	Email            string
	IssuedAt         time.Time
	Sequence         *int
	ConfirmationCode string
}

// InviteToken is the persisted record of an issued invitation token.
// Claims are immutable after creation; Active flips to false exactly once,
// at redemption. Records are never deleted, they remain as an audit trail.
type InviteToken struct {
	ID               string    `json:"id"`
	OpaqueValue      string    `json:"-"`
	HackathonID      string    `json:"hackathon_id"`
	Email            string    `json:"email"`
	ConfirmationCode string    `json:"-"`
	IssuedAt         time.Time `json:"issued_at"`
	Active           bool      `json:"active"`
}

// InviteTokenCodec encodes and verifies invitation tokens. Decode is pure:
// it checks the signature and structure only and never consults storage.
type InviteTokenCodec interface {
	Encode(claims *InviteClaims) (string, error)
	// Decode returns ErrMalformedToken, ErrInvalidSignature or
	// ErrTokenExpired on verification failure.
	Decode(opaqueValue string) (*InviteClaims, error)
}

// InviteTokenRepository defines storage operations for invitation tokens.
type InviteTokenRepository interface {
	// Create persists a new active token. Returns ErrDuplicateToken if the
	// opaque value is already stored.
	Create(ctx context.Context, t *InviteToken) error
	GetByValue(ctx context.Context, opaqueValue string) (*InviteToken, error)
	// TryInvalidate atomically flips Active from true to false and reports
	// whether this call performed the flip. It is the sole enforcement
	// point for at-most-once redemption: of any number of concurrent calls
	// with the same value, exactly one observes true.
	TryInvalidate(ctx context.Context, opaqueValue string) (bool, error)
	// FindActiveByEmailAndCode returns the most recently issued still-active
	// token carrying the given email and confirmation code, or ErrNotFound.
	FindActiveByEmailAndCode(ctx context.Context, email, code string) (*InviteToken, error)
}

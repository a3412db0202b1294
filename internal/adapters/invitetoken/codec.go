package invitetoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hackinvite/internal/domain"
)

type inviteJWTClaims struct {
	jwt.RegisteredClaims
	HackathonID      string `json:"hackathon_id"`
	Email            string `json:"email"`
	Sequence         *int   `json:"num,omitempty"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
}

type codec struct {
	secret []byte
	maxAge time.Duration
}

// NewCodec returns an InviteTokenCodec that signs claim sets with HS256
// using the given secret. If maxAge is positive, decoded tokens older than
// maxAge are rejected with ErrTokenExpired; zero disables the age check.
func NewCodec(secret string, maxAge time.Duration) domain.InviteTokenCodec {
	return &codec{secret: []byte(secret), maxAge: maxAge}
}

func (c *codec) Encode(claims *domain.InviteClaims) (string, error) {
	issuedAt := claims.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}
	jc := inviteJWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti keeps every opaque value distinct even when two
			// tokens for the same email are minted within one second.
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		HackathonID:      claims.HackathonID,
		Email:            claims.Email,
		Sequence:         claims.Sequence,
		ConfirmationCode: claims.ConfirmationCode,
	}
	if c.maxAge > 0 {
		jc.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(c.maxAge))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
	opaque, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invite token: %w", err)
	}
	return opaque, nil
}

func (c *codec) Decode(opaqueValue string) (*domain.InviteClaims, error) {
	var jc inviteJWTClaims
	_, err := jwt.ParseWithClaims(opaqueValue, &jc, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrInvalidSignature
		default:
			return nil, domain.ErrMalformedToken
		}
	}
	if jc.HackathonID == "" || jc.Email == "" {
		return nil, domain.ErrMalformedToken
	}

	claims := &domain.InviteClaims{
		HackathonID:      jc.HackathonID,
		Email:            jc.Email,
		Sequence:         jc.Sequence,
		ConfirmationCode: jc.ConfirmationCode,
	}
	if jc.IssuedAt != nil {
		claims.IssuedAt = jc.IssuedAt.Time.UTC()
	}
	return claims, nil
}

package supabase

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMissingClaim is returned when a required claim is missing
var ErrMissingClaim = errors.New("missing required claim")

// ParsedClaims represents parsed and validated claims
type ParsedClaims struct {
	Sub       uuid.UUID
	Email     string
	Role      string // auth-service role such as "authenticated", not the application role
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func parseClaims(claims *Claims) (*ParsedClaims, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid sub UUID: %w", err)
	}

	parsed := &ParsedClaims{
		Sub:       sub,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}

// SessionKey identifies the login session a token belongs to.
// Tokens minted without a session_id fall back to the subject.
func (p *ParsedClaims) SessionKey() string {
	if p.SessionID != "" {
		return p.SessionID
	}
	return p.Sub.String()
}

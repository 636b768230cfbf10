package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed or its signature does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrNotConfigured is returned by a validator built without a signing secret
	ErrNotConfigured = errors.New("token validation not configured")
)

// Claims represents the claims of an access token minted by the hosted auth service
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	AAL       string `json:"aal,omitempty"`
}

// Config holds configuration for Validator
type Config struct {
	JWTSecret string
	Issuer    string // empty skips the iss check
	Audience  string
	Leeway    time.Duration
}

// Validator validates HS256 access tokens signed with the project JWT secret
type Validator struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewValidator creates a new access token validator
func NewValidator(config Config) *Validator {
	if config.Audience == "" {
		config.Audience = "authenticated"
	}
	if config.Leeway == 0 {
		config.Leeway = 30 * time.Second
	}
	return &Validator{
		secret:   []byte(config.JWTSecret),
		issuer:   config.Issuer,
		audience: config.Audience,
		leeway:   config.Leeway,
	}
}

// Configured reports whether the validator can verify anything at all
func (v *Validator) Configured() bool {
	return len(v.secret) > 0
}

// ValidateToken validates an access token and returns parsed claims
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*ParsedClaims, error) {
	if !v.Configured() {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrInvalidIssuer
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, ErrInvalidAudience
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	parsed, err := parseClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return parsed, nil
}

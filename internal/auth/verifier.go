// Package auth resolves bearer credentials into verified identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredential      = errors.New("missing bearer credential")
	ErrInvalidCredential = errors.New("invalid bearer credential")
)

// Identity is the caller identity derived from a verified token.
type Identity struct {
	UserID string
	Email  string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens issued by the auth provider.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewVerifier creates a verifier. Empty issuer or audience disables that check.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoCredential
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidCredential
	}

	return strings.TrimSpace(token), nil
}

// Verify parses and validates an access token.
func (v *Verifier) Verify(_ context.Context, token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, errors.New("jwt secret not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: empty subject", ErrInvalidCredential)
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// grantClaims are the JWT claims carried by an enrollment grant. The
// subject is the user who passed verification, role is copied from
// that user's stored metadata.
type grantClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Grant identifies a verified user who may authorize enrollments.
type Grant struct {
	Username string
	Role     string
}

// GrantIssuer mints and validates short-lived enrollment grants.
// A grant proves that its subject recently passed two-factor
// verification, so possession of one is required to enroll new users.
type GrantIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewGrantIssuer creates a GrantIssuer signing with the given secret.
// Grants expire after ttl.
func NewGrantIssuer(secret string, ttl time.Duration) *GrantIssuer {
	return &GrantIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a grant for a user who just passed verification.
func (g *GrantIssuer) Issue(username, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
		Role: role,
	})

	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("signing grant: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of a grant token and returns
// the identity it carries. Any failure is reported as ErrUnauthorized.
func (g *GrantIssuer) Validate(tokenString string) (*Grant, error) {
	claims := &grantClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	return &Grant{Username: claims.Subject, Role: claims.Role}, nil
}

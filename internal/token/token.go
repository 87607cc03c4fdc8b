// Package token mints and verifies the signed bearer tokens that carry the
// acting user into the HTTP API.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/example/checkclass/internal/permission"
)

var (
	// ErrMissingSecret is returned when an Issuer is built without a signing key.
	ErrMissingSecret = errors.New("token: signing secret is required")
	// ErrInvalidToken is returned for tokens that are malformed, expired,
	// signed with another key or missing actor claims.
	ErrInvalidToken = errors.New("token: invalid token")
)

// Claims is the JWT payload. Subject holds the actor ID.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 tokens with one shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A non-positive ttl issues tokens without expiry.
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue returns a signed token for actor.
func (i *Issuer) Issue(actor permission.Actor) (string, error) {
	if !actor.Known() {
		return "", fmt.Errorf("token: cannot issue for actor %q with role %q", actor.ID, actor.Role)
	}

	now := i.now()
	claims := Claims{
		Role: string(actor.Role),
		Name: actor.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  actor.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the actor it carries.
func (i *Issuer) Parse(raw string) (permission.Actor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return permission.Actor{}, ErrInvalidToken
	}

	var claims Claims
	// Expiry is checked against the issuer clock below.
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return permission.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(i.now()) {
		return permission.Actor{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}

	role, err := permission.ParseRole(claims.Role)
	if err != nil {
		return permission.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return permission.Actor{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return permission.Actor{ID: claims.Subject, Role: role, DisplayName: claims.Name}, nil
}

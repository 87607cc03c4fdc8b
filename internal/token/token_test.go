package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/example/checkclass/internal/permission"
)

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, time.March, 10, 7, 45, 0, 0, time.UTC)
	issuer, err := NewIssuer("s3cret", 8*time.Hour, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	actor := permission.Actor{ID: "u-7", Role: permission.RoleStandard, DisplayName: "Rossi"}
	raw, err := issuer.Issue(actor)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	got, err := issuer.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got != actor {
		t.Fatalf("expected %+v, got %+v", actor, got)
	}
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2025, time.March, 10, 7, 45, 0, 0, time.UTC)
	clock := now
	issuer, err := NewIssuer("s3cret", time.Hour, func() time.Time { return clock })
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	other, _ := NewIssuer("another", time.Hour, func() time.Time { return clock })

	admin := permission.Actor{ID: "u-1", Role: permission.RoleAdmin, DisplayName: "Segreteria"}
	valid, err := issuer.Issue(admin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	foreign, err := other.Issue(admin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	unsignedRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "janitor",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-2"},
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	tests := []struct {
		name    string
		raw     string
		advance time.Duration
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not.a.token"},
		{name: "wrong key", raw: foreign},
		{name: "unknown role", raw: unsignedRole},
		{name: "expired", raw: valid, advance: 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = now.Add(tt.advance)
			if _, err := issuer.Parse(tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestIssuerRequiresSecretAndKnownActor(t *testing.T) {
	if _, err := NewIssuer("  ", time.Hour, nil); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}

	issuer, err := NewIssuer("s3cret", 0, nil)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	if _, err := issuer.Issue(permission.Actor{ID: "u-1"}); err == nil {
		t.Fatal("expected error for actor without role")
	}
}

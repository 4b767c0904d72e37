package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret")

	access, id, refresh, err := issuer.Issue("a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	email, err := issuer.VerifyIDToken(id)
	if err != nil || email != "a@example.com" {
		t.Fatalf("verify id: %q %v", email, err)
	}

	email, err = issuer.VerifyRefreshToken(refresh)
	if err != nil || email != "a@example.com" {
		t.Fatalf("verify refresh: %q %v", email, err)
	}

	// Tokens are bound to their use: an access token is not an id token.
	if _, err := issuer.VerifyIDToken(access); err != ErrBadToken {
		t.Fatalf("expected ErrBadToken for access token, got %v", err)
	}
	if _, err := issuer.VerifyRefreshToken(id); err != ErrBadToken {
		t.Fatalf("expected ErrBadToken for id token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-one")
	_, id, _, err := issuer.Issue("a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenIssuer("secret-two")
	if _, err := other.VerifyIDToken(id); err != ErrBadToken {
		t.Fatalf("expected ErrBadToken across secrets, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	issuer.now = func() time.Time { return time.Now().Add(-2 * accessTokenTTL) }
	_, id, _, err := issuer.Issue("a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.VerifyIDToken(id); err != ErrBadToken {
		t.Fatalf("expected ErrBadToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.VerifyIDToken(tok); err != ErrBadToken {
			t.Fatalf("token %q: expected ErrBadToken, got %v", tok, err)
		}
	}
}

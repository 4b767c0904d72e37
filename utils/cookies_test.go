package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"popcorn/models"
)

func TestSetSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookies(rec, &models.TokenSet{
		AccessToken:  "acc",
		IDToken:      "id",
		RefreshToken: "ref",
	}, CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	byName := make(map[string]*http.Cookie)
	for _, c := range cookies {
		byName[c.Name] = c
	}

	for _, name := range []string{AccessTokenCookie, IDTokenCookie, RefreshTokenCookie} {
		c, ok := byName[name]
		if !ok {
			t.Fatalf("missing cookie %q", name)
		}
		if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
			t.Fatalf("cookie %q has wrong flags: %+v", name, c)
		}
	}

	if byName[RefreshTokenCookie].MaxAge <= byName[AccessTokenCookie].MaxAge {
		t.Fatalf("expected refresh cookie to outlive access cookie")
	}
}

func TestIDTokenRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookies(rec, &models.TokenSet{AccessToken: "a", IDToken: "the-id"}, CookieOptions{})

	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	if got := IDTokenFromRequest(req); got != "the-id" {
		t.Fatalf("expected id token back, got %q", got)
	}
	if got := RefreshTokenFromRequest(req); got != "" {
		t.Fatalf("expected no refresh cookie when token absent, got %q", got)
	}
}

func TestClearSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSessionCookies(rec, CookieOptions{})

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Fatalf("expected cookie %q to be expired, got MaxAge=%d", c.Name, c.MaxAge)
		}
	}
}

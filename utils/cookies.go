package utils

import (
	"net/http"
	"time"

	"popcorn/models"
)

// Session cookie names. The id token is the only one read back by the
// backend; access and refresh are replayed to the credential provider.
const (
	AccessTokenCookie  = "popcorn_access"
	IDTokenCookie      = "popcorn_id"
	RefreshTokenCookie = "popcorn_refresh"
)

const (
	sessionCookieMaxAge = int(time.Hour / time.Second)
	refreshCookieMaxAge = int(30 * 24 * time.Hour / time.Second)
)

// CookieOptions carries the deployment-specific cookie flags.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetSessionCookies writes the three token cookies for an authentication
// result. Access and id expire with the tokens (1h), refresh lives 30 days.
func SetSessionCookies(w http.ResponseWriter, ts *models.TokenSet, opts CookieOptions) {
	setCookie(w, AccessTokenCookie, ts.AccessToken, sessionCookieMaxAge, opts)
	setCookie(w, IDTokenCookie, ts.IDToken, sessionCookieMaxAge, opts)
	if ts.RefreshToken != "" {
		setCookie(w, RefreshTokenCookie, ts.RefreshToken, refreshCookieMaxAge, opts)
	}
}

// ClearSessionCookies expires all three token cookies.
func ClearSessionCookies(w http.ResponseWriter, opts CookieOptions) {
	setCookie(w, AccessTokenCookie, "", -1, opts)
	setCookie(w, IDTokenCookie, "", -1, opts)
	setCookie(w, RefreshTokenCookie, "", -1, opts)
}

// IDTokenFromRequest returns the identity token cookie value, or "".
func IDTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(IDTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// RefreshTokenFromRequest returns the refresh token cookie value, or "".
func RefreshTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

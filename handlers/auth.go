package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"popcorn/services/auth"
	"popcorn/utils"
)

// passwordResetter is the optional reset operation the local and memory
// providers support; Cognito handles resets through its own hosted flow.
type passwordResetter interface {
	ResetPassword(ctx context.Context, email string) (string, error)
}

// AuthHandler fronts the configured credential provider.
type AuthHandler struct {
	provider   auth.Provider
	verifier   auth.Verifier
	cookieOpts utils.CookieOptions
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(provider auth.Provider, verifier auth.Verifier, cookieOpts utils.CookieOptions) *AuthHandler {
	return &AuthHandler{
		provider:   provider,
		verifier:   verifier,
		cookieOpts: cookieOpts,
	}
}

// Register attaches the auth routes to the router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/auth/signup", h.SignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/confirm", h.Confirm).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset", h.Reset).Methods(http.MethodPost)
	r.HandleFunc("/auth/session", RequireUser(h.verifier, h.Session)).Methods(http.MethodGet)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if req.Email == "" {
		jsonError(w, "Email is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// providerError maps credential-store failures onto HTTP statuses.
func providerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrBadCredentials),
		errors.Is(err, auth.ErrNotConfirmed),
		errors.Is(err, auth.ErrBadCode),
		errors.Is(err, auth.ErrBadToken):
		jsonError(w, err.Error(), http.StatusUnauthorized)
	default:
		slog.Error("auth.provider.failed", "error", err)
		jsonError(w, "Authentication service unavailable", http.StatusBadGateway)
	}
}

// SignUp registers a new account with the credential provider.
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if req.Password == "" {
		jsonError(w, "Password is required", http.StatusBadRequest)
		return
	}

	if err := h.provider.SignUp(r.Context(), req.Email, req.Password); err != nil {
		providerError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true, "confirmationRequired": true})
}

// Confirm completes sign-up with the verification code.
// POST /auth/confirm
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		jsonError(w, "Confirmation code is required", http.StatusBadRequest)
		return
	}

	if err := h.provider.Confirm(r.Context(), req.Email, req.Code); err != nil {
		providerError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true})
}

// Login authenticates and sets the session cookies.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	tokens, err := h.provider.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		providerError(w, err)
		return
	}

	utils.SetSessionCookies(w, tokens, h.cookieOpts)
	writeJSON(w, map[string]interface{}{"ok": true})
}

// Refresh exchanges the refresh cookie for fresh access and id cookies.
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := utils.RefreshTokenFromRequest(r)
	if refreshToken == "" {
		jsonError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	tokens, err := h.provider.Refresh(r.Context(), refreshToken)
	if err != nil {
		providerError(w, err)
		return
	}

	utils.SetSessionCookies(w, tokens, h.cookieOpts)
	writeJSON(w, map[string]interface{}{"ok": true})
}

// Logout clears the session cookies. Tokens are stateless, so there is
// nothing to revoke server-side.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearSessionCookies(w, h.cookieOpts)
	writeJSON(w, map[string]interface{}{"ok": true})
}

// Reset generates a temporary password for a locked-out account. Only the
// local and memory providers support this; with Cognito it returns 404.
// POST /auth/reset
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	resetter, ok := h.provider.(passwordResetter)
	if !ok {
		jsonError(w, "Password reset is handled by the identity provider", http.StatusNotFound)
		return
	}

	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	temp, err := resetter.ResetPassword(r.Context(), req.Email)
	if err != nil {
		providerError(w, err)
		return
	}
	// No mail delivery in local mode: the temporary password goes to the
	// server log for the operator, never over HTTP.
	slog.Info("auth.reset.temporary_password", "email", req.Email, "password", temp)
	writeJSON(w, map[string]interface{}{"ok": true})
}

// Session reports the authenticated user's identity.
// GET /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"ok":    true,
		"email": userFromContext(r.Context()),
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"popcorn/services/auth"
	"popcorn/utils"
)

type contextKey string

const userContextKey contextKey = "popcorn.user"

// jsonError writes a JSON error response with the given status code.
func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    false,
		"error": message,
	})
}

// writeJSON writes a 200 JSON response.
func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// userFromContext returns the authenticated user's email, or "".
func userFromContext(ctx context.Context) string {
	email, _ := ctx.Value(userContextKey).(string)
	return email
}

// RequireUser verifies the identity token cookie and stores the resolved
// email in the request context. Requests without a valid token get a 401 and
// never reach the wrapped handler.
func RequireUser(verifier auth.Verifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := utils.IDTokenFromRequest(r)
		if token == "" {
			jsonError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		email, err := verifier.VerifyIDToken(token)
		if err != nil {
			jsonError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, email)))
	}
}

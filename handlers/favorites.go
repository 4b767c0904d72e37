package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"popcorn/models"
	"popcorn/services/auth"
	"popcorn/services/favorites"
)

type favoritesStore interface {
	Favorites(user string) ([]models.FavoriteMovie, error)
	Toggle(user string, input models.FavoriteUpsert) ([]models.FavoriteMovie, error)
}

var _ favoritesStore = (*favorites.Store)(nil)

// FavoritesHandler serves the per-user favorites API.
type FavoritesHandler struct {
	store    favoritesStore
	verifier auth.Verifier
}

// NewFavoritesHandler creates a new favorites handler.
func NewFavoritesHandler(store favoritesStore, verifier auth.Verifier) *FavoritesHandler {
	return &FavoritesHandler{store: store, verifier: verifier}
}

// Register attaches the favorites routes to the router.
func (h *FavoritesHandler) Register(r *mux.Router) {
	r.HandleFunc("/favorites", RequireUser(h.verifier, h.List)).Methods(http.MethodGet)
	r.HandleFunc("/favorites/toggle", RequireUser(h.verifier, h.Toggle)).Methods(http.MethodPost)
}

// List returns the authenticated user's favorites, newest first.
// GET /favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	items, err := h.store.Favorites(user)
	if err != nil {
		slog.Error("favorites.list.failed", "error", err)
		jsonError(w, "Failed to load favorites", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"ok":    true,
		"items": items,
	})
}

// Toggle adds or removes one favorite and returns the resulting list.
// POST /favorites/toggle
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var input models.FavoriteUpsert
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.store.Toggle(user, input)
	if err != nil {
		if errors.Is(err, favorites.ErrInvalidMovieID) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("favorites.toggle.failed", "user", user, "tmdbId", input.TmdbID, "error", err)
		jsonError(w, "Failed to save favorites", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"ok":    true,
		"items": items,
	})
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"popcorn/models"
	"popcorn/services/tmdb"
)

type movieLookup interface {
	Enabled() bool
	Movie(ctx context.Context, tmdbID int64) (*models.MovieDetails, error)
}

var _ movieLookup = (*tmdb.Client)(nil)

// MoviesHandler serves TMDb movie details.
type MoviesHandler struct {
	client movieLookup
}

// NewMoviesHandler creates a new movies handler.
func NewMoviesHandler(client movieLookup) *MoviesHandler {
	return &MoviesHandler{client: client}
}

// Register attaches the movies route to the router.
func (h *MoviesHandler) Register(r *mux.Router) {
	r.HandleFunc("/movies/{tmdbID}", h.Details).Methods(http.MethodGet)
}

// Details returns metadata for one movie.
// GET /movies/{tmdbID}
func (h *MoviesHandler) Details(w http.ResponseWriter, r *http.Request) {
	if !h.client.Enabled() {
		jsonError(w, "Movie metadata is not configured", http.StatusServiceUnavailable)
		return
	}

	tmdbID, err := strconv.ParseInt(mux.Vars(r)["tmdbID"], 10, 64)
	if err != nil || tmdbID <= 0 {
		jsonError(w, "tmdbID must be a positive integer", http.StatusBadRequest)
		return
	}

	details, err := h.client.Movie(r.Context(), tmdbID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			jsonError(w, "Movie not found", http.StatusNotFound)
			return
		}
		slog.Error("movies.details.failed", "tmdbId", tmdbID, "error", err)
		jsonError(w, "Failed to load movie details", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]interface{}{
		"ok":    true,
		"movie": details,
	})
}

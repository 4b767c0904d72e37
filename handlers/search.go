package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"popcorn/models"
	"popcorn/services/search"
)

type searchService interface {
	Search(vector []float32, topK int) ([]models.SearchResult, error)
	MatchQuery(query string, topK int) ([]models.SearchResult, error)
}

var _ searchService = (*search.Service)(nil)

// SearchHandler serves semantic movie search.
type SearchHandler struct {
	svc searchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(svc searchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Register attaches the search route to the router.
func (h *SearchHandler) Register(r *mux.Router) {
	r.HandleFunc("/search", h.Search).Methods(http.MethodPost)
}

type searchRequest struct {
	Vector []float32 `json:"vector,omitempty"`
	Query  string    `json:"query,omitempty"`
	TopK   int       `json:"topK,omitempty"`
}

// Search runs a vector query, or a text-match query when no vector is given.
// POST /search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var (
		results []models.SearchResult
		err     error
	)
	if len(req.Vector) > 0 {
		results, err = h.svc.Search(req.Vector, req.TopK)
	} else {
		results, err = h.svc.MatchQuery(req.Query, req.TopK)
	}
	if err != nil {
		switch {
		case errors.Is(err, search.ErrInvalidQuery):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, search.ErrIndexUnavailable):
			jsonError(w, "Search index not loaded", http.StatusServiceUnavailable)
		default:
			slog.Error("search.failed", "error", err)
			jsonError(w, "Search failed", http.StatusInternalServerError)
		}
		return
	}

	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, map[string]interface{}{"results": results})
}

package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func movieJSON() map[string]any {
	return map[string]any{
		"id":           550,
		"title":        "Fight Club",
		"overview":     "An insomniac office worker...",
		"poster_path":  "/poster.jpg",
		"release_date": "1999-10-15",
		"runtime":      139,
		"vote_average": 8.4,
		"genres":       []map[string]any{{"name": "Drama"}},
	}
}

func TestMovieParsesAndCaches(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(movieJSON())
	}))
	defer server.Close()

	c := NewClient("key", time.Hour)
	c.baseURL = server.URL

	details, err := c.Movie(context.Background(), 550)
	if err != nil {
		t.Fatalf("movie: %v", err)
	}
	if details.Title != "Fight Club" || details.Year != "1999" || details.Runtime != 139 {
		t.Fatalf("unexpected details: %+v", details)
	}
	if details.PosterURL == "" || details.Genres[0] != "Drama" {
		t.Fatalf("unexpected details: %+v", details)
	}

	// Second lookup hits the cache.
	if _, err := c.Movie(context.Background(), 550); err != nil {
		t.Fatalf("cached movie: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestMovieRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(movieJSON())
	}))
	defer server.Close()

	c := NewClient("key", time.Hour)
	c.baseURL = server.URL

	if _, err := c.Movie(context.Background(), 550); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", got)
	}
}

func TestMovieNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient("key", time.Hour)
	c.baseURL = server.URL

	if _, err := c.Movie(context.Background(), 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("404 should not be retried, got %d calls", got)
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewClient("", time.Hour)
	if c.Enabled() {
		t.Fatalf("client without api key should be disabled")
	}
	if _, err := c.Movie(context.Background(), 550); err != ErrDisabled {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

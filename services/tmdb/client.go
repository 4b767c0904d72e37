package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"popcorn/models"
)

const tmdbAPIBaseURL = "https://api.themoviedb.org/3"
const posterBaseURL = "https://image.tmdb.org/t/p/w500"

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("tmdb client is not configured")
	// ErrNotFound is returned for unknown movie ids.
	ErrNotFound = errors.New("movie not found")
)

// Client fetches movie details from TMDb with an in-memory TTL cache so the
// same title is not re-fetched every time a favorites list renders.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string

	cacheMu  sync.RWMutex
	cache    map[int64]*cacheEntry
	cacheTTL time.Duration
}

type cacheEntry struct {
	details   *models.MovieDetails
	fetchedAt time.Time
}

// NewClient creates a TMDb client. An empty apiKey yields a disabled client
// whose lookups fail with ErrDisabled.
func NewClient(apiKey string, cacheTTL time.Duration) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    tmdbAPIBaseURL,
		cache:      make(map[int64]*cacheEntry),
		cacheTTL:   cacheTTL,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type movieResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Movie returns details for one TMDb movie id, from cache when fresh.
func (c *Client) Movie(ctx context.Context, tmdbID int64) (*models.MovieDetails, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	c.cacheMu.RLock()
	if entry, ok := c.cache[tmdbID]; ok && time.Since(entry.fetchedAt) < c.cacheTTL {
		c.cacheMu.RUnlock()
		return entry.details, nil
	}
	c.cacheMu.RUnlock()

	details, err := c.fetchMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.cache[tmdbID] = &cacheEntry{details: details, fetchedAt: time.Now()}
	c.cacheMu.Unlock()

	return details, nil
}

func (c *Client) fetchMovie(ctx context.Context, tmdbID int64) (*models.MovieDetails, error) {
	url := fmt.Sprintf("%s/movie/%d?api_key=%s", c.baseURL, tmdbID, c.apiKey)

	var parsed movieResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode >= 500:
				return fmt.Errorf("tmdb status %d", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("tmdb status %d", resp.StatusCode))
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode tmdb response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	details := &models.MovieDetails{
		TmdbID:      parsed.ID,
		Title:       parsed.Title,
		Overview:    parsed.Overview,
		Runtime:     parsed.Runtime,
		VoteAverage: parsed.VoteAverage,
	}
	if len(parsed.ReleaseDate) >= 4 {
		details.Year = parsed.ReleaseDate[:4]
	}
	if parsed.PosterPath != "" {
		details.PosterURL = posterBaseURL + parsed.PosterPath
	}
	for _, g := range parsed.Genres {
		details.Genres = append(details.Genres, g.Name)
	}
	return details, nil
}

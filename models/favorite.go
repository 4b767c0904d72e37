package models

// FavoriteMovie represents one movie saved by a user, newest first in a list.
type FavoriteMovie struct {
	TmdbID    int64  `json:"tmdbId"`
	Title     string `json:"title"`
	Year      string `json:"year,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
	AddedAt   int64  `json:"addedAt"` // epoch milliseconds, set once at insertion
}

// FavoriteUpsert captures the data required to toggle a favorite on.
type FavoriteUpsert struct {
	TmdbID    int64  `json:"tmdbId"`
	Title     string `json:"title"`
	Year      string `json:"year,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
}

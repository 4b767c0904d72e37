package models

// MovieDetails is the subset of TMDb movie metadata served to the frontend.
type MovieDetails struct {
	TmdbID      int64    `json:"tmdbId"`
	Title       string   `json:"title"`
	Year        string   `json:"year,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	VoteAverage float64  `json:"voteAverage,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
}

// SearchResult is one semantic-search hit with its cosine similarity.
type SearchResult struct {
	ImdbID            string   `json:"imdbId,omitempty"`
	ID                int64    `json:"id,omitempty"`
	Title             string   `json:"title"`
	Year              string   `json:"year,omitempty"`
	Genre             string   `json:"genre,omitempty"`
	ProductionCountry string   `json:"productionCountry,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	MoodTags          []string `json:"moodTags,omitempty"`
	Score             float64  `json:"score"`
	Similarity        float64  `json:"similarity"`
}

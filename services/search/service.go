// Package search serves natural-language movie queries from a precomputed
// embedding index. The index lives on disk as a single meta.json holding one
// embedding vector per movie; queries are scored by cosine similarity against
// every item, which is plenty fast for a catalogue of a few tens of
// thousands of movies.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"popcorn/models"
)

const (
	defaultTopK = 50
	maxTopK     = 200
)

var (
	// ErrInvalidQuery marks caller errors (bad vector, empty query); the
	// HTTP layer maps it to a 400.
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrIndexUnavailable is returned when no index assets were loaded.
	ErrIndexUnavailable = errors.New("search index not loaded")
)

// IndexedMovie is one entry of the on-disk index.
type IndexedMovie struct {
	ImdbID            string    `json:"imdbId,omitempty"`
	ID                int64     `json:"id,omitempty"`
	Title             string    `json:"title"`
	Year              string    `json:"year,omitempty"`
	Genre             string    `json:"genre,omitempty"`
	ProductionCountry string    `json:"productionCountry,omitempty"`
	Keywords          []string  `json:"keywords,omitempty"`
	MoodTags          []string  `json:"moodTags,omitempty"`
	Vector            []float32 `json:"vector"`
}

type indexFile struct {
	Dim   int            `json:"dim"`
	Items []IndexedMovie `json:"items"`
}

// Service answers vector and text queries over the loaded index.
type Service struct {
	dim   int
	items []IndexedMovie
	// tokens[i] holds the normalized match terms for items[i].
	tokens []map[string]struct{}
}

// Load reads <dir>/meta.json and prepares the index for querying. Items
// whose vector length does not match the declared dimension are dropped.
func Load(fs afero.Fs, dir string) (*Service, error) {
	path := filepath.Join(dir, "meta.json")
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}

	var file indexFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	if file.Dim <= 0 {
		return nil, fmt.Errorf("index %s: invalid vector dim %d", path, file.Dim)
	}

	svc := &Service{dim: file.Dim}
	for _, item := range file.Items {
		if len(item.Vector) != file.Dim || item.Title == "" {
			continue
		}
		normalizeInPlace(item.Vector)
		svc.items = append(svc.items, item)
		svc.tokens = append(svc.tokens, matchTerms(item))
	}
	if len(svc.items) == 0 {
		return nil, fmt.Errorf("index %s: no usable items", path)
	}
	return svc, nil
}

// Len returns the number of indexed movies.
func (s *Service) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Dim returns the embedding dimension of the index.
func (s *Service) Dim() int {
	if s == nil {
		return 0
	}
	return s.dim
}

// Search scores the query embedding against every indexed movie and returns
// the topK best by cosine similarity.
func (s *Service) Search(vector []float32, topK int) ([]models.SearchResult, error) {
	if s == nil || len(s.items) == 0 {
		return nil, ErrIndexUnavailable
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: vector must have length %d", ErrInvalidQuery, s.dim)
	}

	var norm float64
	for _, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: vector contains non-finite values", ErrInvalidQuery)
		}
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return nil, fmt.Errorf("%w: vector norm is 0", ErrInvalidQuery)
	}

	query := make([]float32, len(vector))
	scale := float32(1 / math.Sqrt(norm))
	for i, v := range vector {
		query[i] = v * scale
	}

	scores := s.scoreAll(query)
	return s.top(scores, clampTopK(topK, len(s.items))), nil
}

// scoreAll computes the dot product of the normalized query against every
// item vector, sharded across the available cores.
func (s *Service) scoreAll(query []float32) []float64 {
	scores := make([]float64, len(s.items))

	workers := runtime.GOMAXPROCS(0)
	shard := (len(s.items) + workers - 1) / workers

	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < len(s.items); start += shard {
		end := start + shard
		if end > len(s.items) {
			end = len(s.items)
		}
		p.Go(func() {
			for i := start; i < end; i++ {
				var dot float32
				vec := s.items[i].Vector
				for j, q := range query {
					dot += q * vec[j]
				}
				scores[i] = float64(dot)
			}
		})
	}
	p.Wait()

	return scores
}

func (s *Service) top(scores []float64, k int) []models.SearchResult {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	results := make([]models.SearchResult, 0, k)
	for _, idx := range order[:k] {
		item := s.items[idx]
		results = append(results, models.SearchResult{
			ImdbID:            item.ImdbID,
			ID:                item.ID,
			Title:             item.Title,
			Year:              item.Year,
			Genre:             item.Genre,
			ProductionCountry: item.ProductionCountry,
			Keywords:          item.Keywords,
			MoodTags:          item.MoodTags,
			Score:             scores[idx],
			Similarity:        scores[idx],
		})
	}
	return results
}

func clampTopK(topK, items int) int {
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	if topK > items {
		topK = items
	}
	return topK
}

func normalizeInPlace(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
}

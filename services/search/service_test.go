package search_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"popcorn/services/search"
)

func writeIndex(t *testing.T, fs afero.Fs, dir string, index map[string]any) {
	t.Helper()
	raw, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, dir+"/meta.json", raw, 0o644))
}

func loadTestIndex(t *testing.T) *search.Service {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeIndex(t, fs, "index", map[string]any{
		"dim": 3,
		"items": []map[string]any{
			{
				"id": 550, "imdbId": "tt0137523", "title": "Fight Club",
				"keywords": []string{"insomnia", "soap"}, "moodTags": []string{"dark"},
				"vector": []float64{1, 0, 0},
			},
			{
				"id": 27205, "title": "Inception",
				"keywords": []string{"dream", "heist"},
				"vector":   []float64{0, 1, 0},
			},
			{
				"id": 194, "title": "Amélie",
				"keywords": []string{"paris", "whimsy"},
				"vector":   []float64{0.7, 0.7, 0},
			},
			{
				"id": 999, "title": "Wrong Dim", "vector": []float64{1, 0},
			},
		},
	})

	svc, err := search.Load(fs, "index")
	require.NoError(t, err)
	return svc
}

func TestLoadDropsMismatchedVectors(t *testing.T) {
	svc := loadTestIndex(t)
	require.Equal(t, 3, svc.Len(), "item with wrong vector length should be dropped")
	require.Equal(t, 3, svc.Dim())
}

func TestLoadFailures(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := search.Load(fs, "missing")
	require.Error(t, err)

	writeIndex(t, fs, "nodim", map[string]any{"items": []map[string]any{}})
	_, err = search.Load(fs, "nodim")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "bad/meta.json", []byte("{oops"), 0o644))
	_, err = search.Load(fs, "bad")
	require.Error(t, err)
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	svc := loadTestIndex(t)

	results, err := svc.Search([]float32{1, 0.1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, "Fight Club", results[0].Title)
	require.Equal(t, "Amélie", results[1].Title)
	require.Equal(t, "Inception", results[2].Title)

	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	require.Equal(t, results[0].Score, results[0].Similarity)
	require.InDelta(t, 1.0, results[0].Score, 0.01)
}

func TestSearchValidation(t *testing.T) {
	svc := loadTestIndex(t)

	_, err := svc.Search([]float32{1, 0}, 10)
	require.ErrorIs(t, err, search.ErrInvalidQuery)

	_, err = svc.Search([]float32{0, 0, 0}, 10)
	require.ErrorIs(t, err, search.ErrInvalidQuery)

	_, err = svc.Search([]float32{float32(math.NaN()), 0, 0}, 10)
	require.ErrorIs(t, err, search.ErrInvalidQuery)

	var nilSvc *search.Service
	_, err = nilSvc.Search([]float32{1, 0, 0}, 10)
	require.ErrorIs(t, err, search.ErrIndexUnavailable)
}

func TestSearchClampsTopK(t *testing.T) {
	svc := loadTestIndex(t)

	results, err := svc.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// topK larger than the index clamps to the item count.
	results, err = svc.Search([]float32{1, 0, 0}, 5000)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// topK <= 0 falls back to the default.
	results, err = svc.Search([]float32{1, 0, 0}, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestMatchQuery(t *testing.T) {
	svc := loadTestIndex(t)

	results, err := svc.MatchQuery("dream heist movie", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "Inception", results[0].Title)

	// Diacritics fold: a plain-ascii query finds the accented title.
	results, err = svc.MatchQuery("amelie", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "Amélie", results[0].Title)

	_, err = svc.MatchQuery("   ", 10)
	require.True(t, errors.Is(err, search.ErrInvalidQuery))

	results, err = svc.MatchQuery("zzz-no-match", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"popcorn/models"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lowercases the input, strips diacritics and transliterates
// non-Latin script so "Amélie", "amelie" and "アメリ" can meet in the middle.
func foldText(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(unidecode.Unidecode(folded))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(foldText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchTerms collects the normalized terms an item can be found by.
func matchTerms(item IndexedMovie) map[string]struct{} {
	terms := make(map[string]struct{})
	add := func(s string) {
		for _, tok := range tokenize(s) {
			terms[tok] = struct{}{}
		}
	}
	add(item.Title)
	add(item.Genre)
	for _, kw := range item.Keywords {
		add(kw)
	}
	for _, tag := range item.MoodTags {
		add(tag)
	}
	return terms
}

// MatchQuery ranks indexed movies by normalized-token overlap with the query
// text. It is the fallback path when the caller has no embedding for the
// query; scores are overlap fractions in [0,1], not cosine similarities.
func (s *Service) MatchQuery(query string, topK int) ([]models.SearchResult, error) {
	if s == nil || len(s.items) == 0 {
		return nil, ErrIndexUnavailable
	}
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}

	type hit struct {
		idx   int
		score float64
	}
	hits := make([]hit, 0, 64)
	for i, terms := range s.tokens {
		matched := 0
		for _, tok := range queryTokens {
			if _, ok := terms[tok]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, hit{idx: i, score: float64(matched) / float64(len(queryTokens))})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	k := clampTopK(topK, len(hits))
	results := make([]models.SearchResult, 0, k)
	for _, h := range hits[:k] {
		item := s.items[h.idx]
		results = append(results, models.SearchResult{
			ImdbID:            item.ImdbID,
			ID:                item.ID,
			Title:             item.Title,
			Year:              item.Year,
			Genre:             item.Genre,
			ProductionCountry: item.ProductionCountry,
			Keywords:          item.Keywords,
			MoodTags:          item.MoodTags,
			Score:             h.score,
			Similarity:        h.score,
		})
	}
	return results, nil
}

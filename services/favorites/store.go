package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"popcorn/models"
)

// ErrInvalidMovieID is returned by Toggle when the supplied tmdbId is not a
// positive integer. The store is untouched when this is returned.
var ErrInvalidMovieID = errors.New("tmdbId must be a positive integer")

// fileData is the persisted shape: one object keyed by user email.
type fileData struct {
	Users map[string][]models.FavoriteMovie `json:"users"`
}

// Store persists per-user favorite lists in a single JSON file.
//
// Every public operation runs the whole load-mutate-save cycle under one
// store-wide mutex, so two in-flight toggles can never interleave and drop
// each other's writes. Saves go to a temp sibling first and are renamed over
// the canonical path, so a reader never observes a half-written file. The
// store assumes it is the only process writing the file.
type Store struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewStore creates a favorites store backed by the given filesystem. The file
// and its directory are created lazily on first write.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Favorites returns the user's list, most recently added first. A user with
// no entries gets an empty slice, never an error.
func (s *Store) Favorites(user string) ([]models.FavoriteMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	list := data.Users[user]
	if list == nil {
		return []models.FavoriteMovie{}, nil
	}
	return list, nil
}

// Toggle adds the movie to the user's list, or removes it if an entry with
// the same tmdbId is already present. It returns the resulting list after
// persisting it.
func (s *Store) Toggle(user string, input models.FavoriteUpsert) ([]models.FavoriteMovie, error) {
	if input.TmdbID <= 0 {
		return nil, ErrInvalidMovieID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	current := data.Users[user]
	next := make([]models.FavoriteMovie, 0, len(current)+1)
	removed := false
	for _, fav := range current {
		if fav.TmdbID == input.TmdbID {
			removed = true
			continue
		}
		next = append(next, fav)
	}

	if !removed {
		title := input.Title
		if title == "" {
			title = fmt.Sprintf("Movie %d", input.TmdbID)
		}
		entry := models.FavoriteMovie{
			TmdbID:    input.TmdbID,
			Title:     title,
			Year:      input.Year,
			PosterURL: input.PosterURL,
			AddedAt:   time.Now().UnixMilli(),
		}
		// Prepend so the on-disk order stays newest-first without a re-sort.
		next = append([]models.FavoriteMovie{entry}, next...)
	}

	if data.Users == nil {
		data.Users = make(map[string][]models.FavoriteMovie)
	}
	data.Users[user] = next

	if err := s.save(data); err != nil {
		return nil, err
	}
	return next, nil
}

// load reads and sanitizes the whole file. A missing, unreadable or corrupt
// file degrades to an empty store rather than an error: favorites are not
// worth taking the service down over.
func (s *Store) load() (*fileData, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	data := &fileData{Users: make(map[string][]models.FavoriteMovie)}

	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return data, nil
	}

	var parsed fileData
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Users == nil {
		return data, nil
	}

	now := time.Now().UnixMilli()
	for user, list := range parsed.Users {
		clean := make([]models.FavoriteMovie, 0, len(list))
		for _, fav := range list {
			if fav.TmdbID <= 0 || fav.Title == "" {
				continue
			}
			if fav.AddedAt <= 0 {
				fav.AddedAt = now
			}
			clean = append(clean, fav)
		}
		sort.SliceStable(clean, func(i, j int) bool {
			return clean[i].AddedAt > clean[j].AddedAt
		})
		data.Users[user] = clean
	}
	return data, nil
}

// save writes the whole structure to a temp sibling and renames it over the
// canonical path. If anything fails before the rename, the old file is
// untouched and the error propagates to the caller.
func (s *Store) save(data *fileData) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write favorites temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace favorites file: %w", err)
	}
	return nil
}

func (s *Store) ensureDir() error {
	dir := filepath.Dir(s.path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create favorites directory: %w", err)
	}
	return nil
}

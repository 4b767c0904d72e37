package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"popcorn/models"
)

// MemoryStore is a map-backed UserStore for demos and tests. Nothing
// survives a restart.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

func (m *MemoryStore) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := m.users[key]; ok {
		return ErrUserExists
	}
	stored := *user
	m.users[key] = &stored
	return nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *user
	return &found, nil
}

func (m *MemoryStore) Confirm(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return ErrUserNotFound
	}
	user.Confirmed = true
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

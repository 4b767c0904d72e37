package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"popcorn/models"
	"popcorn/services/auth"
)

// UsersRepository provides account storage for the local auth provider.
// It satisfies auth.UserStore.
type UsersRepository struct {
	conn *sql.DB
}

// NewUsersRepository creates a repository over the given connection.
func NewUsersRepository(conn *sql.DB) *UsersRepository {
	return &UsersRepository{conn: conn}
}

// Create inserts a new account. Emails are stored lowercased.
func (r *UsersRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, confirmed, confirmation_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Confirmed,
		user.ConfirmationCode,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return auth.ErrUserExists
		}
		return err
	}
	return nil
}

// FindByEmail looks an account up by email, case-insensitively.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT id, email, password_hash, confirmed, confirmation_code, created_at, updated_at
		FROM users WHERE email = ?`,
		strings.ToLower(email),
	)

	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Confirmed,
		&user.ConfirmationCode,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Confirm marks an account as verified.
func (r *UsersRepository) Confirm(ctx context.Context, email string) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE users SET confirmed = 1, updated_at = ? WHERE email = ?`,
		time.Now(), strings.ToLower(email),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UsersRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE email = ?`,
		passwordHash, time.Now(), strings.ToLower(email),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

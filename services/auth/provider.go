// Package auth implements the credential providers behind the /auth routes:
// AWS Cognito for hosted deployments, a SQLite-backed local mode, and an
// in-memory mode for demos and tests. All three satisfy Provider and are
// selected by configuration at startup.
package auth

import (
	"context"
	"errors"

	"popcorn/models"
)

var (
	ErrUserExists     = errors.New("an account with this email already exists")
	ErrUserNotFound   = errors.New("no account with this email")
	ErrBadCredentials = errors.New("incorrect email or password")
	ErrNotConfirmed   = errors.New("account is not confirmed yet")
	ErrBadCode        = errors.New("invalid confirmation code")
	ErrBadToken       = errors.New("invalid or expired token")
)

// Provider is the credential store consumed by the HTTP layer.
type Provider interface {
	SignUp(ctx context.Context, email, password string) error
	Confirm(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*models.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenSet, error)
}

// Verifier checks an identity token and returns the email it asserts.
type Verifier interface {
	VerifyIDToken(tokenString string) (email string, err error)
}

// UserStore is the account storage behind the local and memory providers.
// Implementations: the SQLite repository in internal/database and the
// in-memory store in this package.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Confirm(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"popcorn/models"
	"popcorn/utils"
)

// LocalProvider implements Provider on top of a UserStore, issuing HS256
// session tokens itself instead of delegating to Cognito. With the SQLite
// store it backs the self-hosted "local" mode; with MemoryStore it backs the
// "memory" demo mode.
type LocalProvider struct {
	store  UserStore
	issuer *TokenIssuer
}

// NewLocalProvider wires a credential provider around the given user store.
func NewLocalProvider(store UserStore, issuer *TokenIssuer) *LocalProvider {
	return &LocalProvider{store: store, issuer: issuer}
}

// SignUp registers a new unconfirmed account. There is no mail delivery in
// local mode, so the confirmation code is surfaced in the server log.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is required", ErrBadCredentials)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrBadCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	code, err := utils.GenerateConfirmationCode()
	if err != nil {
		return err
	}

	now := time.Now()
	user := &models.User{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     string(hash),
		ConfirmationCode: code,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.store.Create(ctx, user); err != nil {
		return err
	}

	slog.Info("auth.signup.pending_confirmation", "email", email, "code", code)
	return nil
}

// Confirm marks an account as verified when the code matches.
func (p *LocalProvider) Confirm(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := p.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return nil
	}
	if !utils.ValidateConfirmationCode(code) || code != user.ConfirmationCode {
		return ErrBadCode
	}
	return p.store.Confirm(ctx, email)
}

// Login checks the password and issues a fresh token set.
func (p *LocalProvider) Login(ctx context.Context, email, pass string) (*models.TokenSet, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := p.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(pass)); err != nil {
		return nil, ErrBadCredentials
	}
	if !user.Confirmed {
		return nil, ErrNotConfirmed
	}

	access, id, refresh, err := p.issuer.Issue(email)
	if err != nil {
		return nil, err
	}
	return &models.TokenSet{
		AccessToken:  access,
		IDToken:      id,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTokenTTL / time.Second),
	}, nil
}

// Refresh exchanges a valid refresh token for new access and id tokens. The
// refresh token itself is not rotated, matching Cognito's behavior.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*models.TokenSet, error) {
	email, err := p.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := p.store.FindByEmail(ctx, email); err != nil {
		return nil, ErrBadToken
	}

	access, id, _, err := p.issuer.Issue(email)
	if err != nil {
		return nil, err
	}
	return &models.TokenSet{
		AccessToken: access,
		IDToken:     id,
		ExpiresIn:   int(accessTokenTTL / time.Second),
	}, nil
}

// ResetPassword replaces the account password with a generated temporary one
// and returns it. Delivery is left to the operator; the code path exists so
// a locked-out local account is recoverable without editing the database.
func (p *LocalProvider) ResetPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := p.store.FindByEmail(ctx, email); err != nil {
		return "", err
	}

	temp, err := password.Generate(16, 4, 2, false, false)
	if err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash temporary password: %w", err)
	}
	if err := p.store.UpdatePassword(ctx, email, string(hash)); err != nil {
		return "", err
	}
	return temp, nil
}

// VerifyIDToken satisfies Verifier for the identity middleware.
func (p *LocalProvider) VerifyIDToken(tokenString string) (string, error) {
	return p.issuer.VerifyIDToken(tokenString)
}

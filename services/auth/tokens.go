package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// TokenIssuer mints and verifies HS256 session tokens for the local and
// memory providers. Cognito deployments verify against the pool JWKS instead.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates an issuer signing with the given secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue returns a full token set for the given account email.
func (t *TokenIssuer) Issue(email string) (accessToken, idToken, refreshToken string, err error) {
	accessToken, err = t.sign(email, "access", accessTokenTTL)
	if err != nil {
		return "", "", "", err
	}
	idToken, err = t.sign(email, "id", accessTokenTTL)
	if err != nil {
		return "", "", "", err
	}
	refreshToken, err = t.sign(email, "refresh", refreshTokenTTL)
	if err != nil {
		return "", "", "", err
	}
	return accessToken, idToken, refreshToken, nil
}

func (t *TokenIssuer) sign(email, use string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":       email,
		"email":     email,
		"token_use": use,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", use, err)
	}
	return signed, nil
}

// VerifyIDToken checks an id token and returns the email claim.
func (t *TokenIssuer) VerifyIDToken(tokenString string) (string, error) {
	return t.verify(tokenString, "id")
}

// VerifyRefreshToken checks a refresh token and returns the email claim.
func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (string, error) {
	return t.verify(tokenString, "refresh")
}

func (t *TokenIssuer) verify(tokenString, wantUse string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", ErrBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadToken
	}
	if use, _ := claims["token_use"].(string); use != wantUse {
		return "", ErrBadToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", ErrBadToken
	}
	return email, nil
}

package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"popcorn/models"
)

const cognitoTargetPrefix = "AWSCognitoIdentityProviderService."

// CognitoConfig holds the user pool coordinates.
type CognitoConfig struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

// CognitoClient implements Provider against the AWS Cognito Identity
// Provider JSON API. Only the unauthenticated app-client operations are used,
// so no SigV4 signing is involved.
type CognitoClient struct {
	cfg        CognitoConfig
	httpClient *http.Client
	baseURL    string // overrides the regional endpoint in tests

	jwksMu   sync.RWMutex
	jwksKeys map[string]*rsa.PublicKey
}

// NewCognitoClient creates a client for the configured user pool.
func NewCognitoClient(cfg CognitoConfig) *CognitoClient {
	return &CognitoClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *CognitoClient) endpoint() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/", c.cfg.Region)
}

// secretHash computes the SECRET_HASH parameter required when the app client
// has a secret: Base64(HMAC-SHA256(username + clientId, clientSecret)).
func (c *CognitoClient) secretHash(username string) string {
	if c.cfg.ClientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.ClientSecret))
	mac.Write([]byte(username + c.cfg.ClientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type cognitoError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// translateError maps Cognito exception types onto the package sentinels so
// the HTTP layer can pick status codes without knowing about Cognito.
func translateError(ce cognitoError) error {
	exception := ce.Type
	if i := strings.LastIndex(exception, "#"); i >= 0 {
		exception = exception[i+1:]
	}
	switch exception {
	case "UsernameExistsException":
		return ErrUserExists
	case "UserNotFoundException":
		return ErrUserNotFound
	case "NotAuthorizedException":
		return ErrBadCredentials
	case "UserNotConfirmedException":
		return ErrNotConfirmed
	case "CodeMismatchException", "ExpiredCodeException":
		return ErrBadCode
	default:
		return fmt.Errorf("cognito %s: %s", exception, ce.Message)
	}
}

func (c *CognitoClient) call(ctx context.Context, operation string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", cognitoTargetPrefix+operation)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cognito %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode != http.StatusOK {
		var ce cognitoError
		if err := json.Unmarshal(raw, &ce); err != nil || ce.Type == "" {
			return fmt.Errorf("cognito %s: status %d", operation, resp.StatusCode)
		}
		return translateError(ce)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}

// SignUp registers a new account; Cognito emails the confirmation code.
func (c *CognitoClient) SignUp(ctx context.Context, email, password string) error {
	payload := map[string]any{
		"ClientId": c.cfg.ClientID,
		"Username": email,
		"Password": password,
		"UserAttributes": []map[string]string{
			{"Name": "email", "Value": email},
		},
	}
	if sh := c.secretHash(email); sh != "" {
		payload["SecretHash"] = sh
	}
	return c.call(ctx, "SignUp", payload, nil)
}

// Confirm completes sign-up with the emailed code.
func (c *CognitoClient) Confirm(ctx context.Context, email, code string) error {
	payload := map[string]any{
		"ClientId":         c.cfg.ClientID,
		"Username":         email,
		"ConfirmationCode": code,
	}
	if sh := c.secretHash(email); sh != "" {
		payload["SecretHash"] = sh
	}
	return c.call(ctx, "ConfirmSignUp", payload, nil)
}

type cognitoAuthResponse struct {
	AuthenticationResult struct {
		AccessToken  string `json:"AccessToken"`
		IdToken      string `json:"IdToken"`
		RefreshToken string `json:"RefreshToken"`
		ExpiresIn    int    `json:"ExpiresIn"`
	} `json:"AuthenticationResult"`
}

// Login runs the USER_PASSWORD_AUTH flow.
func (c *CognitoClient) Login(ctx context.Context, email, password string) (*models.TokenSet, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if sh := c.secretHash(email); sh != "" {
		params["SECRET_HASH"] = sh
	}
	payload := map[string]any{
		"ClientId":       c.cfg.ClientID,
		"AuthFlow":       "USER_PASSWORD_AUTH",
		"AuthParameters": params,
	}

	var resp cognitoAuthResponse
	if err := c.call(ctx, "InitiateAuth", payload, &resp); err != nil {
		return nil, err
	}
	return &models.TokenSet{
		AccessToken:  resp.AuthenticationResult.AccessToken,
		IDToken:      resp.AuthenticationResult.IdToken,
		RefreshToken: resp.AuthenticationResult.RefreshToken,
		ExpiresIn:    resp.AuthenticationResult.ExpiresIn,
	}, nil
}

// Refresh runs the REFRESH_TOKEN_AUTH flow. Cognito does not rotate the
// refresh token, so the returned set carries only new access and id tokens.
//
// REFRESH_TOKEN_AUTH derives SECRET_HASH from the token's device key rather
// than the username; app clients without a secret need no hash at all, which
// is the configuration Popcorn documents for hosted deployments.
func (c *CognitoClient) Refresh(ctx context.Context, refreshToken string) (*models.TokenSet, error) {
	params := map[string]string{
		"REFRESH_TOKEN": refreshToken,
	}
	payload := map[string]any{
		"ClientId":       c.cfg.ClientID,
		"AuthFlow":       "REFRESH_TOKEN_AUTH",
		"AuthParameters": params,
	}

	var resp cognitoAuthResponse
	if err := c.call(ctx, "InitiateAuth", payload, &resp); err != nil {
		return nil, err
	}
	return &models.TokenSet{
		AccessToken: resp.AuthenticationResult.AccessToken,
		IDToken:     resp.AuthenticationResult.IdToken,
		ExpiresIn:   resp.AuthenticationResult.ExpiresIn,
	}, nil
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (c *CognitoClient) jwksURL() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json",
		c.cfg.Region, c.cfg.UserPoolID)
}

func (c *CognitoClient) fetchJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks document contained no usable RSA keys")
	}

	c.jwksMu.Lock()
	c.jwksKeys = keys
	c.jwksMu.Unlock()
	return nil
}

func (c *CognitoClient) keyForKid(kid string) *rsa.PublicKey {
	c.jwksMu.RLock()
	defer c.jwksMu.RUnlock()
	return c.jwksKeys[kid]
}

// VerifyIDToken validates an RS256 id token against the pool JWKS and
// returns the email claim. The JWKS document is fetched on first use and
// refreshed once if an unknown key id shows up (pool key rotation).
func (c *CognitoClient) VerifyIDToken(tokenString string) (string, error) {
	keyfunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if key := c.keyForKid(kid); key != nil {
			return key, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.fetchJWKS(ctx); err != nil {
			return nil, err
		}
		if key := c.keyForKid(kid); key != nil {
			return key, nil
		}
		return nil, fmt.Errorf("no jwks key for kid %q", kid)
	}

	token, err := jwt.Parse(tokenString, keyfunc,
		jwt.WithAudience(c.cfg.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadToken
	}
	if use, _ := claims["token_use"].(string); use != "id" {
		return "", ErrBadToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", ErrBadToken
	}
	return email, nil
}

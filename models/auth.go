package models

// TokenSet is the result of a successful login or refresh: the three token
// strings handed to the session cookie codec plus the access token lifetime.
type TokenSet struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
}

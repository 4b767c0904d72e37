package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		exception string
		want      error
	}{
		{"UsernameExistsException", ErrUserExists},
		{"com.amazonaws.cognito#UsernameExistsException", ErrUserExists},
		{"NotAuthorizedException", ErrBadCredentials},
		{"UserNotConfirmedException", ErrNotConfirmed},
		{"UserNotFoundException", ErrUserNotFound},
		{"CodeMismatchException", ErrBadCode},
		{"ExpiredCodeException", ErrBadCode},
	}

	for _, test := range tests {
		got := translateError(cognitoError{Type: test.exception})
		if got != test.want {
			t.Errorf("translateError(%q) = %v, expected %v", test.exception, got, test.want)
		}
	}

	if got := translateError(cognitoError{Type: "InternalErrorException", Message: "boom"}); got == nil {
		t.Errorf("unknown exceptions should map to a generic error")
	}
}

func TestSecretHash(t *testing.T) {
	c := NewCognitoClient(CognitoConfig{ClientID: "client", ClientSecret: "secret"})
	if got := c.secretHash("user"); got == "" {
		t.Fatalf("expected a secret hash when a client secret is set")
	}

	noSecret := NewCognitoClient(CognitoConfig{ClientID: "client"})
	if got := noSecret.secretHash("user"); got != "" {
		t.Fatalf("expected empty hash without client secret, got %q", got)
	}
}

func TestLoginAgainstStubEndpoint(t *testing.T) {
	var gotTarget string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.Header.Get("X-Amz-Target")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"AuthenticationResult": map[string]any{
				"AccessToken":  "acc",
				"IdToken":      "id",
				"RefreshToken": "ref",
				"ExpiresIn":    3600,
			},
		})
	}))
	defer server.Close()

	c := NewCognitoClient(CognitoConfig{Region: "eu-west-1", ClientID: "client"})
	c.baseURL = server.URL

	ts, err := c.Login(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if ts.AccessToken != "acc" || ts.IDToken != "id" || ts.RefreshToken != "ref" || ts.ExpiresIn != 3600 {
		t.Fatalf("unexpected token set: %+v", ts)
	}

	if gotTarget != "AWSCognitoIdentityProviderService.InitiateAuth" {
		t.Fatalf("unexpected target header %q", gotTarget)
	}
	if gotBody["AuthFlow"] != "USER_PASSWORD_AUTH" {
		t.Fatalf("unexpected auth flow in %v", gotBody)
	}
}

func TestLoginTranslatesCognitoErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"__type":  "NotAuthorizedException",
			"message": "Incorrect username or password.",
		})
	}))
	defer server.Close()

	c := NewCognitoClient(CognitoConfig{Region: "eu-west-1", ClientID: "client"})
	c.baseURL = server.URL

	if _, err := c.Login(context.Background(), "a@example.com", "bad"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// GenerateConfirmationCode returns a cryptographically secure 6-digit
// confirmation code for account sign-up verification.
func GenerateConfirmationCode() (string, error) {
	// Random number between 100000 and 999999 so the code is always 6 digits
	max := big.NewInt(900000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ValidateConfirmationCode checks if a string is a valid 6-digit code.
func ValidateConfirmationCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, char := range code {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// GenerateTokenSecret returns a URL-safe random signing secret with 256 bits
// of entropy, minted once per install for HS256 session tokens.
func GenerateTokenSecret() (string, error) {
	const numBytes = 32 // 256 bits
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package utils

import (
	"testing"
)

func TestGenerateConfirmationCode(t *testing.T) {
	code, err := GenerateConfirmationCode()
	if err != nil {
		t.Fatalf("GenerateConfirmationCode() failed: %v", err)
	}

	if len(code) != 6 {
		t.Errorf("Expected code length 6, got %d", len(code))
	}

	for i, char := range code {
		if char < '0' || char > '9' {
			t.Errorf("Code character at position %d is not a digit: %c", i, char)
		}
	}

	if code < "100000" || code > "999999" {
		t.Errorf("Code %s is not within valid range (100000-999999)", code)
	}
}

func TestValidateConfirmationCode(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"123456", true},
		{"000000", true},
		{"999999", true},
		{"12345", false},   // too short
		{"1234567", false}, // too long
		{"12345a", false},  // contains non-digit
		{"", false},        // empty
		{"abc123", false},  // contains letters
	}

	for _, test := range tests {
		result := ValidateConfirmationCode(test.code)
		if result != test.expected {
			t.Errorf("ValidateConfirmationCode(%q) = %v, expected %v", test.code, result, test.expected)
		}
	}
}

func TestGenerateTokenSecret(t *testing.T) {
	a, err := GenerateTokenSecret()
	if err != nil {
		t.Fatalf("GenerateTokenSecret() failed: %v", err)
	}
	b, err := GenerateTokenSecret()
	if err != nil {
		t.Fatalf("GenerateTokenSecret() failed: %v", err)
	}

	if len(a) < 40 {
		t.Errorf("Expected at least 256 bits of encoded entropy, got %d chars", len(a))
	}
	if a == b {
		t.Errorf("Expected distinct secrets on successive calls")
	}
}

package session

import (
	"encoding/base64"
	"strings"
	"testing"
)

// TestEnsure_NewToken verifies that a first contact without a token yields a
// fresh token with at least 128 bits of entropy.
func TestEnsure_NewToken(t *testing.T) {
	token, isNew, err := Ensure("")
	if err != nil {
		t.Fatalf("Ensure(\"\") error = %v, want nil", err)
	}
	if !isNew {
		t.Fatal("Ensure(\"\") isNew = false, want true")
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token %q is not raw URL base64: %v", token, err)
	}
	if len(raw) < 16 {
		t.Errorf("token entropy = %d bytes, want >= 16 (128 bits)", len(raw))
	}
}

// TestEnsure_EchoedTokenKept verifies that presenting a previously issued
// token returns it unchanged without creating a new identity.
func TestEnsure_EchoedTokenKept(t *testing.T) {
	first, _, err := Ensure("")
	if err != nil {
		t.Fatalf("Ensure(\"\") error = %v", err)
	}

	second, isNew, err := Ensure(first)
	if err != nil {
		t.Fatalf("Ensure(%q) error = %v", first, err)
	}
	if isNew {
		t.Error("Ensure(echoed) isNew = true, want false")
	}
	if second != first {
		t.Errorf("Ensure(echoed) = %q, want %q unchanged", second, first)
	}
}

// TestEnsure_Uniqueness verifies that independently issued tokens differ.
func TestEnsure_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, _, err := Ensure("")
		if err != nil {
			t.Fatalf("Ensure(\"\") error = %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %q", token)
		}
		seen[token] = true
	}
}

// TestEnsure_InvalidTokenReplaced verifies that malformed incoming tokens
// are replaced with fresh ones rather than trusted.
func TestEnsure_InvalidTokenReplaced(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "empty", incoming: ""},
		{name: "not base64", incoming: "!!!not-base64!!!"},
		{name: "too short", incoming: base64.RawURLEncoding.EncodeToString([]byte("short"))},
		{name: "absurdly long", incoming: strings.Repeat("A", 500)},
		{name: "padded base64", incoming: base64.URLEncoding.EncodeToString(make([]byte, 32)) + "=="},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, isNew, err := Ensure(tc.incoming)
			if err != nil {
				t.Fatalf("Ensure(%q) error = %v", tc.incoming, err)
			}
			if !isNew {
				t.Errorf("Ensure(%q) isNew = false, want true", tc.incoming)
			}
			if token == tc.incoming {
				t.Errorf("Ensure(%q) returned the invalid token unchanged", tc.incoming)
			}
		})
	}
}

// TestValid covers the syntactic acceptance rules directly.
func TestValid(t *testing.T) {
	good := base64.RawURLEncoding.EncodeToString(make([]byte, 16))
	if !Valid(good) {
		t.Errorf("Valid(%q) = false, want true", good)
	}
	short := base64.RawURLEncoding.EncodeToString(make([]byte, 15))
	if Valid(short) {
		t.Errorf("Valid(%q) = true, want false (under 128 bits)", short)
	}
	if Valid("") {
		t.Error("Valid(\"\") = true, want false")
	}
}

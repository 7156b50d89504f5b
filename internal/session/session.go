// Package session assigns and recognizes the opaque per-visitor identity
// token. There is no server-side session table: identity is possession of
// the token, which the client persists in a long-lived cookie.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// tokenBytes is the entropy of a freshly issued token.
	tokenBytes = 32

	// minTokenBytes is the minimum decoded length accepted on echo (128 bits).
	minTokenBytes = 16

	// maxTokenLen bounds the encoded form so arbitrary cookie junk is
	// replaced rather than carried along as an identity.
	maxTokenLen = 128
)

// Ensure returns the visitor's identity token. A syntactically valid incoming
// token is returned unchanged with isNew=false. Otherwise a fresh random
// token is generated with isNew=true and the caller must hand it to the
// client for persistence. Generation failure means the entropy source is
// broken and the request must abort.
func Ensure(incoming string) (token string, isNew bool, err error) {
	if Valid(incoming) {
		return incoming, false, nil
	}
	token, err = newToken()
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Valid reports whether a token is syntactically acceptable: raw URL-safe
// base64 decoding to at least 128 bits.
func Valid(token string) bool {
	if token == "" || len(token) > maxTokenLen {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return len(raw) >= minTokenBytes
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

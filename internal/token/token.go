// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token generates and hashes opaque confirmation tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Length is the number of random bytes per token, 256 bits of entropy.
const Length = 32

// Generate returns a fresh token as (plaintext, SHA256 hash). The plaintext
// goes into the confirmation link; only the hash is stored.
func Generate() (string, string, error) {
	bytes := make([]byte, Length)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plaintext := hex.EncodeToString(bytes)
	return plaintext, Hash(plaintext), nil
}

// Hash computes the SHA256 hash of a token.
func Hash(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// Lifetimes of emailed tokens
const (
	PasswordResetTTL = time.Hour
	EmailVerifyTTL   = 48 * time.Hour
)

// NewActionToken returns a random URL-safe token and the hash to persist
func NewActionToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashActionToken(token), nil
}

// HashActionToken returns the hex SHA-256 of token
func HashActionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	s := NewSigner(secret)
	token, err := s.GenerateToken("user-1", "ada@example.com")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Nil(t, claims.ExpiresAt)
}

func TestSigner_RejectsForeignToken(t *testing.T) {
	token, err := NewSigner("secret-a").GenerateToken("user-1", "ada@example.com")
	require.NoError(t, err)

	_, err = NewSigner("secret-b").ValidateToken(token)
	assert.Error(t, err)

	_, err = NewSigner("secret-a").ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestSigner_EmptySecret(t *testing.T) {
	_, err := NewSigner("").GenerateToken("user-1", "a@b.com")
	assert.ErrorIs(t, err, ErrSecretNotSet)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword("Secret123", hash))
	assert.Error(t, VerifyPassword("secret123", hash))
}

func TestActionToken(t *testing.T) {
	token, hash, err := NewActionToken()
	require.NoError(t, err)

	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashActionToken(token))
	assert.Len(t, hash, 64)

	other, _, err := NewActionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

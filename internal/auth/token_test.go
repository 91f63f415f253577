package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer, err := NewTokenSigner("unit-test-secret", 15*time.Minute)
	require.NoError(t, err)

	token, expiresAt, err := signer.Mint("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	subject, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", subject)
}

func TestTokenSignerRejectsTamperedSecret(t *testing.T) {
	signer, err := NewTokenSigner("secret-a", time.Minute)
	require.NoError(t, err)
	other, err := NewTokenSigner("secret-b", time.Minute)
	require.NoError(t, err)

	token, _, err := signer.Mint("user-1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSignerRejectsExpired(t *testing.T) {
	signer, err := NewTokenSigner("unit-test-secret", time.Minute)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Mint("user-1")
	require.NoError(t, err)

	signer.now = time.Now
	_, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSignerRejectsGarbage(t *testing.T) {
	signer, err := NewTokenSigner("unit-test-secret", time.Minute)
	require.NoError(t, err)

	for _, token := range []string{"", "   ", "a.b.c", "not a token"} {
		_, err := signer.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestNewTokenSignerValidation(t *testing.T) {
	_, err := NewTokenSigner("", time.Minute)
	require.Error(t, err)
	_, err = NewTokenSigner("secret", 0)
	require.Error(t, err)
}

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrywen2005/travel-journal/internal/auth"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, auth.VerifyPassword("hunter2", hash))
	assert.False(t, auth.VerifyPassword("wrong", hash))
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)

	signed, err := tokens.Issue(42, "a@b.c")
	require.NoError(t, err)

	userID, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokens_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := issuedAt
	tokens := auth.NewTokensWithClock("test-secret", time.Hour, func() time.Time { return clock })

	signed, err := tokens.Issue(42, "a@b.c")
	require.NoError(t, err)

	clock = issuedAt.Add(2 * time.Hour)
	_, err = tokens.Verify(signed)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_WrongSecret(t *testing.T) {
	signed, err := auth.NewTokens("secret-a", time.Hour).Issue(42, "a@b.c")
	require.NoError(t, err)

	_, err = auth.NewTokens("secret-b", time.Hour).Verify(signed)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_Garbage(t *testing.T) {
	_, err := auth.NewTokens("test-secret", time.Hour).Verify("not.a.jwt")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

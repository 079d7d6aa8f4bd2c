package auth_test

import (
	"testing"

	auth "github.com/starthub/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		hash := testPasswordHash(t)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, testPassword, hash)

		err := auth.ComparePasswordAndHash(testPassword, hash)
		assert.NoError(t, err)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := auth.HashPassword("")
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash := testPasswordHash(t)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash(testPassword, hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("invalid hash", func(t *testing.T) {
		err := auth.ComparePasswordAndHash(testPassword, "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	hash := auth.RandomPasswordHash()
	require.NotEmpty(t, hash)

	// a random hash must never match any guessable password
	assert.Error(t, auth.ComparePasswordAndHash("", hash))
	assert.Error(t, auth.ComparePasswordAndHash("password", hash))
}

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/apperr"
	"blog-api/internal/auth"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	t.Run("never returns the plaintext", func(t *testing.T) {
		hash, err := hasher.Hash("password1")
		require.NoError(t, err)
		assert.NotEqual(t, "password1", hash)
		assert.False(t, strings.Contains(hash, "password1"))
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("uses configured cost", func(t *testing.T) {
		hash, err := hasher.Hash("password1")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	hash, err := auth.NewBcryptHasher(0).Hash("password1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultCost, cost)
}

func TestBcryptHasher_Verify(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correctpassword")
	require.NoError(t, err)

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails without error", func(t *testing.T) {
		for _, candidate := range []string{"wrongpassword", "correctpasswor", "Correctpassword", ""} {
			ok, err := hasher.Verify(candidate, hash)
			require.NoError(t, err)
			assert.False(t, ok, candidate)
		}
	})

	t.Run("malformed hash is reported as corrupt", func(t *testing.T) {
		ok, err := hasher.Verify("correctpassword", "not-a-bcrypt-hash")
		assert.False(t, ok)
		apperr.AssertCode(t, err, apperr.CodeHashCorrupt)
	})
}

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"blog-api/internal/apperr"
	"blog-api/internal/auth"
)

func TestCanMutate(t *testing.T) {
	assert.True(t, auth.CanMutate("owner-1", "owner-1"))
	assert.False(t, auth.CanMutate("other-2", "owner-1"))
	assert.False(t, auth.CanMutate("", ""))
}

func TestRequireOwner(t *testing.T) {
	assert.NoError(t, auth.RequireOwner("owner-1", "owner-1"))
	apperr.AssertCode(t, auth.RequireOwner("other-2", "owner-1"), apperr.CodeForbidden)
}

func TestIdentityContext(t *testing.T) {
	_, ok := auth.IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithIdentity(context.Background(), alice)
	got, ok := auth.IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, alice, got)

	_, ok = auth.IdentityFromContext(auth.WithIdentity(context.Background(), auth.Identity{}))
	assert.False(t, ok)
}

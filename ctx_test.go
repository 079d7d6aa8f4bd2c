package auth_test

import (
	"context"
	"testing"

	auth "github.com/starthub/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	user := &auth.User{Username: "tester"}

	ctx := auth.WithContext(context.Background(), user)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContext(t *testing.T) {
	claims := &auth.JWTClaims{UID: "user-1", UserRole: "admin"}

	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID())

	_, ok = auth.GetClaims(context.Background())
	assert.False(t, ok)
}

func TestHasMinimumRole(t *testing.T) {
	claims := &auth.JWTClaims{UID: "user-1", UserRole: "admin"}
	ctx := auth.WithClaimsContext(context.Background(), claims)

	assert.True(t, auth.HasMinimumRole(ctx, auth.RoleMember))
	assert.True(t, auth.HasMinimumRole(ctx, auth.RoleAdmin))
	assert.False(t, auth.HasMinimumRole(ctx, auth.RoleOwner))
	assert.False(t, auth.HasMinimumRole(context.Background(), auth.RoleGuest))
}

func TestGetRouterClaims(t *testing.T) {
	claims := &auth.JWTClaims{UID: "user-1", UserRole: "member"}

	t.Run("claims present", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("Locals", "user").Return(claims)

		got, ok := auth.GetRouterClaims(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "user-1", got.UserID())
		assert.True(t, auth.HasMinimumRoleFromRouter(ctx, auth.RoleMember))
		assert.False(t, auth.HasMinimumRoleFromRouter(ctx, auth.RoleAdmin))
	})

	t.Run("claims missing", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("Locals", "user").Return(nil)

		_, ok := auth.GetRouterClaims(ctx, "")
		assert.False(t, ok)
	})

	t.Run("custom key", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("Locals", "identity").Return(claims)

		_, ok := auth.GetRouterClaims(ctx, "identity")
		assert.True(t, ok)
	})
}

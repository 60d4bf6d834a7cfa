package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luaspark-server/internal/domain/session/store"
	"luaspark-server/internal/platform/errors"
	platformtesting "luaspark-server/internal/platform/testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(store.NewMemory(5), platformtesting.SetupTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestNewTokenIsOpaqueAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewToken()
		require.NoError(t, err)
		assert.Len(t, tok, tokenBytes*2)
		assert.False(t, seen[tok], "token collision")
		seen[tok] = true
	}
}

func TestRegistryCreateResolve(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	tok, err := r.Create(ctx, "  Alice@Example.COM ")
	require.NoError(t, err)

	// Resolution yields the canonical identity, not the raw input.
	email, err := r.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestRegistryResolveFailures(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "")
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))

	_, err = r.Resolve(ctx, "deadbeef")
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
}

func TestRegistryRevoke(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	tok, err := r.Create(ctx, "bob@example.com")
	require.NoError(t, err)

	require.NoError(t, r.Revoke(ctx, tok))
	_, err = r.Resolve(ctx, tok)
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
}

func TestRegistryRevokeAll(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	t1, err := r.Create(ctx, "carol@example.com")
	require.NoError(t, err)
	t2, err := r.Create(ctx, "Carol@example.com")
	require.NoError(t, err)

	require.NoError(t, r.RevokeAll(ctx, "CAROL@example.com"))

	for _, tok := range []string{t1, t2} {
		_, err := r.Resolve(ctx, tok)
		assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
	}

	count, err := r.Count(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Zero(t, count)
}

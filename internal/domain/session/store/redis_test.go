package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, maxPerUser int) Store {
	t.Helper()
	mr := miniredis.RunT(t)

	s, err := NewRedis(RedisConfig{Addr: mr.Addr(), Prefix: "test"}, maxPerUser)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestRedisAddResolve(t *testing.T) {
	s := newRedisStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "tok-1", "alice@example.com"))

	email, err := s.Resolve(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = s.Resolve(ctx, "tok-unknown")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisCapEvictsOldest(t *testing.T) {
	s := newRedisStore(t, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Add(ctx, fmt.Sprintf("tok-%d", i), "alice@example.com"))
	}

	for i := 1; i <= 2; i++ {
		_, err := s.Resolve(ctx, fmt.Sprintf("tok-%d", i))
		assert.True(t, errors.Is(err, ErrNotFound), "tok-%d should be evicted", i)
	}
	for i := 3; i <= 5; i++ {
		_, err := s.Resolve(ctx, fmt.Sprintf("tok-%d", i))
		assert.NoError(t, err)
	}

	count, err := s.Count(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRedisRemoveAndRemoveAll(t *testing.T) {
	s := newRedisStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "a1", "alice@example.com"))
	require.NoError(t, s.Add(ctx, "a2", "alice@example.com"))
	require.NoError(t, s.Add(ctx, "b1", "bob@example.com"))

	require.NoError(t, s.Remove(ctx, "a1"))
	_, err := s.Resolve(ctx, "a1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, s.Remove(ctx, "a1"))

	require.NoError(t, s.RemoveAll(ctx, "alice@example.com"))
	count, err := s.Count(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = s.Resolve(ctx, "b1")
	assert.NoError(t, err)
}

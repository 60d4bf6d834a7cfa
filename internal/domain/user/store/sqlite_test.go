package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/storage"
	platformtesting "luaspark-server/internal/platform/testing"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	s, err := NewSQLite(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSQLiteStorePutGet(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	u := model.User{
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Memory: []model.Turn{
			{Role: model.RoleUser, Content: "make a part"},
			{Role: model.RoleAssistant, Content: "Instance.new(\"Part\")"},
		},
	}
	require.NoError(t, s.Put(ctx, u))

	got, err := s.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	require.Len(t, got.Memory, 2)
	assert.Equal(t, model.RoleAssistant, got.Memory[1].Role)
}

func TestSQLiteStorePutReplaces(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, model.User{Email: "bob@example.com", PasswordHash: "old"}))
	require.NoError(t, s.Put(ctx, model.User{Email: "bob@example.com", PasswordHash: "new", HasPaid: true}))

	got, err := s.Get(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.True(t, got.HasPaid)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s := newSQLiteStore(t)

	_, err := s.Get(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStoreStats(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, model.User{Email: "a@example.com", PasswordHash: "h"}))
	require.NoError(t, s.Put(ctx, model.User{Email: "b@example.com", PasswordHash: "h", HasPaid: true}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stats["type"])
	assert.Equal(t, int64(2), stats["total"])
	assert.Equal(t, int64(1), stats["paid"])
}

func TestFactorySelectsDriver(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)

	s, err := New(Config{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "users.json")}, Dependencies{Logger: logger})
	require.NoError(t, err)
	_ = s.Close(context.Background())

	_, err = New(Config{Driver: DriverSQLite}, Dependencies{Logger: logger})
	assert.Error(t, err)

	_, err = New(Config{Driver: "bolt"}, Dependencies{Logger: logger})
	assert.Error(t, err)
}

package user

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/domain/user/store"
	"luaspark-server/internal/platform/errors"
	platformtesting "luaspark-server/internal/platform/testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := platformtesting.SetupTestLogger(t)

	s, err := store.New(store.Config{
		Driver:        store.DriverFile,
		Path:          filepath.Join(t.TempDir(), "users.json"),
		FlushInterval: time.Hour,
	}, store.Dependencies{Logger: logger})
	require.NoError(t, err)

	m, err := NewManager(Options{Store: s, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestRegisterAndAuthenticate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "Alice@Example.com", "secret"))

	// The stored hash must never be the cleartext credential.
	u, err := m.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))

	// Mixed-case identity resolves to the same account.
	got, err := m.Authenticate(ctx, "  ALICE@example.COM ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestRegisterValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	err := m.Register(ctx, "", "secret")
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))

	err = m.Register(ctx, "a@example.com", "")
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestRegisterDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "bob@example.com", "pw"))

	// Same identity under different casing is still a duplicate.
	err := m.Register(ctx, "BOB@Example.com", "pw2")
	assert.True(t, errors.IsKind(err, errors.KindAlreadyExists))
}

func TestAuthenticateFailures(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "carol@example.com", "right"))

	_, err := m.Authenticate(ctx, "carol@example.com", "wrong")
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))

	// Unknown user yields the same kind, not a not-found leak.
	_, err = m.Authenticate(ctx, "ghost@example.com", "whatever")
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))
}

func TestMarkPaid(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	err := m.MarkPaid(ctx, "nobody@example.com", "manual")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	require.NoError(t, m.Register(ctx, "dave@example.com", "pw"))
	require.NoError(t, m.MarkPaid(ctx, "DAVE@example.com", "manual"))

	u, err := m.Get(ctx, "dave@example.com")
	require.NoError(t, err)
	assert.True(t, u.HasPaid)
}

func TestEnsureForPayment(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.EnsureForPayment(ctx, "payer@example.com"))

	u, err := m.Get(ctx, "payer@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.PasswordHash)

	// The placeholder credential must not verify against anything guessable.
	_, err = m.Authenticate(ctx, "payer@example.com", "")
	assert.True(t, errors.IsKind(err, errors.KindUnauthenticated))

	// Re-ensuring an existing account must not reset it.
	require.NoError(t, m.MarkPaid(ctx, "payer@example.com", "webhook"))
	require.NoError(t, m.EnsureForPayment(ctx, "payer@example.com"))
	u, err = m.Get(ctx, "payer@example.com")
	require.NoError(t, err)
	assert.True(t, u.HasPaid)
}

func TestAppendTurnsWindow(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "erin@example.com", "pw"))

	for i := 0; i < 6; i++ {
		_, err := m.AppendTurns(ctx, "erin@example.com",
			model.Turn{Role: model.RoleUser, Content: fmt.Sprintf("q%d", i)},
			model.Turn{Role: model.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
		require.NoError(t, err)
	}

	u, err := m.Get(ctx, "erin@example.com")
	require.NoError(t, err)
	require.Len(t, u.Memory, model.MemoryWindow)

	// Oldest entries are evicted first: the window starts at q1.
	assert.Equal(t, "q1", u.Memory[0].Content)
	assert.Equal(t, "a5", u.Memory[len(u.Memory)-1].Content)
}

func TestAppendTurnsMissingUser(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AppendTurns(context.Background(), "ghost@example.com",
		model.Turn{Role: model.RoleUser, Content: "hi"})
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"luaspark-server/internal/domain/eventbus"
	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/domain/user/store"
	"luaspark-server/internal/platform/errors"
)

type (
	// User re-exports the shared entity for callers.
	User = model.User
	// Turn re-exports the conversation entry type.
	Turn = model.Turn
	// Logger re-exports the logging interface used across the domain.
	Logger = model.Logger
)

// Normalize is the identity normalization entry point shared with the
// transport layer.
var Normalize = model.NormalizeEmail

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Store  store.Store
	Logger Logger
}

// Manager owns registration, credential verification, entitlement and the
// per-user conversation window. All identities are normalized on the way in.
type Manager struct {
	store  store.Store
	logger Logger

	// serializes read-modify-write sequences (register uniqueness check,
	// memory append) against each other
	mu sync.Mutex
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, stderrors.New("user manager requires a store")
	}
	if opts.Logger == nil {
		return nil, stderrors.New("user manager requires a logger")
	}
	return &Manager{
		store:  opts.Store,
		logger: opts.Logger,
	}, nil
}

// Register creates a new account with a hashed credential and empty memory.
func (m *Manager) Register(ctx context.Context, email, password string) error {
	email = Normalize(email)
	if email == "" || password == "" {
		return errors.New(errors.KindInvalidInput, "user.register", "email and password required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.store.Get(ctx, email); err == nil {
		return errors.New(errors.KindAlreadyExists, "user.register", "user already exists")
	} else if !stderrors.Is(err, store.ErrNotFound) {
		return errors.Wrap(errors.KindStorage, "user.register", "failed to check existing user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "user.register", "failed to hash credential", err)
	}

	u := model.User{
		Email:        email,
		PasswordHash: string(hash),
		HasPaid:      false,
		Memory:       []model.Turn{},
		CreatedAt:    time.Now(),
	}
	if err := m.store.Put(ctx, u); err != nil {
		m.logger.Error("[AUTH] failed to persist new user %s: %v", email, err)
		return errors.Wrap(errors.KindStorage, "user.register", "failed to persist user", err)
	}

	m.logger.Info("[AUTH] registered user %s", email)
	eventbus.Publish(eventbus.EventUserRegistered, eventbus.UserEventData{Email: email})
	return nil
}

// Authenticate verifies a credential pair and returns the stored record.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = Normalize(email)

	u, err := m.store.Get(ctx, email)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return model.User{}, errors.New(errors.KindUnauthenticated, "user.authenticate", "invalid credentials")
		}
		return model.User{}, errors.Wrap(errors.KindStorage, "user.authenticate", "failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		m.logger.Debug("[AUTH] credential mismatch for %s", email)
		return model.User{}, errors.New(errors.KindUnauthenticated, "user.authenticate", "invalid credentials")
	}

	eventbus.Publish(eventbus.EventUserSignedIn, eventbus.UserEventData{Email: email})
	return u, nil
}

// Get returns a record without verifying credentials.
func (m *Manager) Get(ctx context.Context, email string) (model.User, error) {
	u, err := m.store.Get(ctx, Normalize(email))
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return model.User{}, errors.New(errors.KindNotFound, "user.get", "user not found")
		}
		return model.User{}, errors.Wrap(errors.KindStorage, "user.get", "failed to load user", err)
	}
	return u, nil
}

// MarkPaid flips the entitlement flag for an existing account.
func (m *Manager) MarkPaid(ctx context.Context, email, source string) error {
	email = Normalize(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.store.Get(ctx, email)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return errors.New(errors.KindNotFound, "user.markpaid", "user not found")
		}
		return errors.Wrap(errors.KindStorage, "user.markpaid", "failed to load user", err)
	}

	u.HasPaid = true
	if err := m.store.Put(ctx, u); err != nil {
		return errors.Wrap(errors.KindStorage, "user.markpaid", "failed to persist entitlement", err)
	}

	m.logger.Info("[PAY] marked %s as paid (%s)", email, source)
	eventbus.Publish(eventbus.EventPaymentCompleted, eventbus.PaymentEventData{Email: email, Source: source})
	return nil
}

// EnsureForPayment creates a placeholder account when a payment webhook
// arrives for an unknown identity. The placeholder credential is random and
// unusable until the user signs up properly.
func (m *Manager) EnsureForPayment(ctx context.Context, email string) error {
	email = Normalize(email)
	if email == "" {
		return errors.New(errors.KindInvalidInput, "user.ensure", "email required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.store.Get(ctx, email); err == nil {
		return nil
	} else if !stderrors.Is(err, store.ErrNotFound) {
		return errors.Wrap(errors.KindStorage, "user.ensure", "failed to check existing user", err)
	}

	placeholder := make([]byte, 24)
	if _, err := rand.Read(placeholder); err != nil {
		return errors.Wrap(errors.KindStorage, "user.ensure", "failed to generate placeholder credential", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(placeholder)), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "user.ensure", "failed to hash placeholder credential", err)
	}

	u := model.User{
		Email:        email,
		PasswordHash: string(hash),
		Memory:       []model.Turn{},
		CreatedAt:    time.Now(),
	}
	if err := m.store.Put(ctx, u); err != nil {
		return errors.Wrap(errors.KindStorage, "user.ensure", "failed to persist user", err)
	}
	m.logger.Info("[PAY] created account for webhook identity %s", email)
	return nil
}

// AppendTurns appends conversation turns to a user's memory and truncates
// the log to the retained window. The retained memory is returned.
func (m *Manager) AppendTurns(ctx context.Context, email string, turns ...model.Turn) ([]model.Turn, error) {
	email = Normalize(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.store.Get(ctx, email)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.New(errors.KindNotFound, "user.memory", "user not found")
		}
		return nil, errors.Wrap(errors.KindStorage, "user.memory", "failed to load user", err)
	}

	u.Memory = append(u.Memory, turns...)
	if len(u.Memory) > model.MemoryWindow {
		u.Memory = u.Memory[len(u.Memory)-model.MemoryWindow:]
	}

	if err := m.store.Put(ctx, u); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.memory", "failed to persist memory", err)
	}
	return u.Memory, nil
}

// Flush forces the backing store to disk.
func (m *Manager) Flush(ctx context.Context) error {
	return m.store.Flush(ctx)
}

// Stats returns debug information from the store backend.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	return m.store.Stats(ctx)
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	if err := m.store.Close(context.Background()); err != nil {
		m.logger.Error("[STORE] failed closing user store: %v", err)
		return err
	}
	return nil
}

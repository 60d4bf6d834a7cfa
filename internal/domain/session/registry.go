package session

import (
	"context"
	stderrors "errors"

	"luaspark-server/internal/domain/session/store"
	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/errors"
)

// Registry issues and resolves opaque session tokens. Every identity passing
// through it is normalized first, so a token always maps to the canonical
// form of an email.
type Registry struct {
	store  store.Store
	logger model.Logger
}

// NewRegistry wires a Registry over the chosen backend.
func NewRegistry(s store.Store, logger model.Logger) (*Registry, error) {
	if s == nil {
		return nil, stderrors.New("session registry requires a store")
	}
	if logger == nil {
		return nil, stderrors.New("session registry requires a logger")
	}
	return &Registry{store: s, logger: logger}, nil
}

// Create mints a fresh token for an email and records it. The backend evicts
// the user's oldest session when the cap is exceeded.
func (r *Registry) Create(ctx context.Context, email string) (string, error) {
	email = model.NormalizeEmail(email)

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := r.store.Add(ctx, token, email); err != nil {
		return "", errors.Wrap(errors.KindStorage, "session.create", "failed to record session", err)
	}
	r.logger.Debug("[AUTH] issued session for %s", email)
	return token, nil
}

// Resolve maps a token back to its owning email.
func (r *Registry) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New(errors.KindUnauthenticated, "session.resolve", "missing token")
	}
	email, err := r.store.Resolve(ctx, token)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return "", errors.New(errors.KindUnauthenticated, "session.resolve", "invalid or expired token")
		}
		return "", errors.Wrap(errors.KindStorage, "session.resolve", "failed to resolve session", err)
	}
	return email, nil
}

// Revoke invalidates a single token. Revoking an unknown token succeeds.
func (r *Registry) Revoke(ctx context.Context, token string) error {
	if err := r.store.Remove(ctx, token); err != nil {
		return errors.Wrap(errors.KindStorage, "session.revoke", "failed to revoke session", err)
	}
	return nil
}

// RevokeAll invalidates every live token belonging to an email.
func (r *Registry) RevokeAll(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if err := r.store.RemoveAll(ctx, email); err != nil {
		return errors.Wrap(errors.KindStorage, "session.revoke", "failed to revoke sessions", err)
	}
	r.logger.Info("[AUTH] revoked all sessions for %s", email)
	return nil
}

// Count reports how many live sessions an email currently holds.
func (r *Registry) Count(ctx context.Context, email string) (int, error) {
	return r.store.Count(ctx, model.NormalizeEmail(email))
}

// Close releases the backing store.
func (r *Registry) Close(ctx context.Context) error {
	return r.store.Close(ctx)
}

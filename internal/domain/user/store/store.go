package store

import (
	"context"
	"time"

	"luaspark-server/internal/domain/user/model"
)

// Store defines the persistence behaviour required by the user manager.
// Implementations index users by normalized email.
type Store interface {
	Get(ctx context.Context, email string) (model.User, error)
	Put(ctx context.Context, u model.User) error
	All(ctx context.Context) ([]model.User, error)
	// Flush forces pending state to durable storage. Backends that write
	// through on Put may treat it as a no-op.
	Flush(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver        string
	Path          string
	FlushInterval time.Duration
	SQLite        *SQLiteConfig
}

// SQLiteConfig provides the database dependency parameters.
type SQLiteConfig struct {
	DSN string
}

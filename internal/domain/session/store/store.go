package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a token has no live session.
var ErrNotFound = errors.New("session not found")

// Store holds live sessions keyed by opaque token. Implementations enforce
// the per-user cap by evicting the oldest session on insert.
type Store interface {
	// Add records a token for an email, evicting the user's oldest token
	// when the cap is exceeded.
	Add(ctx context.Context, token, email string) error
	// Resolve returns the email owning a token.
	Resolve(ctx context.Context, token string) (string, error)
	// Remove revokes one token. Unknown tokens are not an error.
	Remove(ctx context.Context, token string) error
	// RemoveAll revokes every token belonging to an email.
	RemoveAll(ctx context.Context, email string) error
	// Count returns the number of live sessions for an email.
	Count(ctx context.Context, email string) (int, error)
	Close(ctx context.Context) error
}

// Config selects and parameterizes a session backend.
type Config struct {
	Driver     string
	MaxPerUser int
	Redis      *RedisConfig
}

// RedisConfig carries the connection parameters for the redis backend.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

package model

import (
	"strings"
	"time"
)

// Turn roles. They match the wire roles expected by chat-completion APIs.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MemoryWindow bounds the per-user conversation log. Older turns are
// dropped from the front.
const MemoryWindow = 10

// Turn is one conversation entry retained in a user's memory.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// User is the persisted account record. PasswordHash is a bcrypt digest;
// the cleartext secret is never stored.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	HasPaid      bool      `json:"hasPaid"`
	Memory       []Turn    `json:"memory"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail is the single normalization point for identities. Every
// entry point (signup, signin, bypass comparison, webhook) must pass
// identities through here before comparing or storing them.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Logger provides the minimal logging contract required by the user domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

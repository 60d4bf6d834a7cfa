package session

import (
	"crypto/rand"
	"encoding/hex"

	"luaspark-server/internal/platform/errors"
)

const tokenBytes = 32

// NewToken generates an opaque session token. Tokens carry no embedded
// claims; the registry is the only way to resolve one.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(errors.KindUnknown, "session.token", "failed to generate token", err)
	}
	return hex.EncodeToString(buf), nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"luaspark-server/internal/domain/user/model"
)

// ErrNotFound is returned when no record exists for an email.
var ErrNotFound = errors.New("user not found")

type fileStore struct {
	path      string
	users     map[string]model.User
	dirty     bool
	mutex     sync.RWMutex
	flushFreq time.Duration
	logger    model.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewFile builds a flat-file user store. The file is loaded once at
// construction; a corrupt file yields an empty store plus a logged
// diagnostic rather than an error.
func NewFile(cfg Config, logger model.Logger) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file store requires a path")
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = 60 * time.Second
	}

	s := &fileStore{
		path:      cfg.Path,
		users:     make(map[string]model.User),
		flushFreq: flush,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	s.load()

	go s.flushLoop()
	return s, nil
}

// load replaces the in-memory state with the file contents. Never merges.
func (s *fileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if dir := filepath.Dir(s.path); dir != "." {
				_ = os.MkdirAll(dir, 0o755)
			}
			if writeErr := os.WriteFile(s.path, []byte("{}"), 0o600); writeErr != nil {
				s.logger.Warn("[STORE] could not create %s: %v", s.path, writeErr)
			} else {
				s.logger.Info("[STORE] created new user file %s", s.path)
			}
			return
		}
		s.logger.Error("[STORE] failed to read %s: %v", s.path, err)
		return
	}

	users := make(map[string]model.User)
	if err := sonic.Unmarshal(data, &users); err != nil {
		s.logger.Error("[STORE] corrupt user file %s, starting empty: %v", s.path, err)
		return
	}
	s.users = users
	s.logger.Info("[STORE] loaded %d users from %s", len(users), s.path)
}

func (s *fileStore) flushLoop() {
	ticker := time.NewTicker(s.flushFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Flush(context.Background()); err != nil {
				s.logger.Error("[STORE] periodic flush failed: %v", err)
			}
		case <-s.stop:
			return
		}
	}
}

func (s *fileStore) Get(_ context.Context, email string) (model.User, error) {
	s.mutex.RLock()
	u, ok := s.users[email]
	s.mutex.RUnlock()
	if !ok {
		return model.User{}, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	return u, nil
}

func (s *fileStore) Put(ctx context.Context, u model.User) error {
	if u.Email == "" {
		return fmt.Errorf("email required")
	}

	s.mutex.Lock()
	s.users[u.Email] = u
	s.dirty = true
	s.mutex.Unlock()

	// Write-through keeps the file correct across restarts; the periodic
	// flush is only a safety net.
	return s.Flush(ctx)
}

func (s *fileStore) All(_ context.Context) ([]model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

// Flush rewrites the whole file. No append log, no partial update.
func (s *fileStore) Flush(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := sonic.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *fileStore) Stats(_ context.Context) (map[string]any, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	paid := 0
	for _, u := range s.users {
		if u.HasPaid {
			paid++
		}
	}
	return map[string]any{
		"type":  "file",
		"path":  s.path,
		"total": len(s.users),
		"paid":  paid,
	}, nil
}

func (s *fileStore) Close(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return s.Flush(ctx)
}

package store

import (
	"context"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	byToken map[string]string
	// insertion-ordered tokens per email, oldest first
	byEmail    map[string][]string
	maxPerUser int
}

// NewMemory builds an in-process session store.
func NewMemory(maxPerUser int) Store {
	if maxPerUser <= 0 {
		maxPerUser = 5
	}
	return &memoryStore{
		byToken:    make(map[string]string),
		byEmail:    make(map[string][]string),
		maxPerUser: maxPerUser,
	}
}

func (s *memoryStore) Add(_ context.Context, token, email string) error {
	if token == "" || email == "" {
		return fmt.Errorf("token and email required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byToken[token] = email
	s.byEmail[email] = append(s.byEmail[email], token)

	for len(s.byEmail[email]) > s.maxPerUser {
		oldest := s.byEmail[email][0]
		s.byEmail[email] = s.byEmail[email][1:]
		delete(s.byToken, oldest)
	}
	return nil
}

func (s *memoryStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	email, ok := s.byToken[token]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return email, nil
}

func (s *memoryStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.byToken[token]
	if !ok {
		return nil
	}
	delete(s.byToken, token)

	tokens := s.byEmail[email]
	for i, t := range tokens {
		if t == token {
			s.byEmail[email] = append(tokens[:i], tokens[i+1:]...)
			break
		}
	}
	if len(s.byEmail[email]) == 0 {
		delete(s.byEmail, email)
	}
	return nil
}

func (s *memoryStore) RemoveAll(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.byEmail[email] {
		delete(s.byToken, t)
	}
	delete(s.byEmail, email)
	return nil
}

func (s *memoryStore) Count(_ context.Context, email string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail[email]), nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}

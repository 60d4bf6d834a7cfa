package chat

import (
	"context"
	"sync"

	"luaspark-server/internal/domain/llm"
	"luaspark-server/internal/domain/user"
	"luaspark-server/internal/domain/user/model"
)

// keyedMutex hands out one mutex per identity so concurrent generations for
// the same user are serialized while distinct users proceed in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// memory adapts the user manager's stored turns into provider conversations.
type memory struct {
	users *user.Manager
}

// appendUser records the prompt as a user turn and returns the retained
// window including it.
func (m *memory) appendUser(ctx context.Context, email, prompt string) ([]model.Turn, error) {
	return m.users.AppendTurns(ctx, email, model.Turn{Role: model.RoleUser, Content: prompt})
}

// appendAssistant records the raw provider reply.
func (m *memory) appendAssistant(ctx context.Context, email, reply string) error {
	_, err := m.users.AppendTurns(ctx, email, model.Turn{Role: model.RoleAssistant, Content: reply})
	return err
}

// buildContext converts retained turns into the provider conversation with
// exactly one leading system message.
func buildContext(systemPrompt string, turns []model.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}

package chat

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"luaspark-server/internal/domain/eventbus"
	"luaspark-server/internal/domain/llm"
	"luaspark-server/internal/domain/user"
	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/errors"
)

// Options carries the dependencies and policy for the generation service.
type Options struct {
	Users        *user.Manager
	Provider     llm.Provider
	Logger       model.Logger
	SystemPrompt string
	// BypassEmail is exempt from the payment gate.
	BypassEmail string
}

// Service orchestrates script generation: entitlement gate, conversation
// memory, provider call, reply parsing.
type Service struct {
	users        *user.Manager
	provider     llm.Provider
	logger       model.Logger
	systemPrompt string
	bypassEmail  string

	memory *memory
	locks  *keyedMutex
}

// NewService wires the generation service.
func NewService(opts Options) (*Service, error) {
	if opts.Users == nil {
		return nil, stderrors.New("chat service requires a user manager")
	}
	if opts.Provider == nil {
		return nil, stderrors.New("chat service requires an llm provider")
	}
	if opts.Logger == nil {
		return nil, stderrors.New("chat service requires a logger")
	}

	return &Service{
		users:        opts.Users,
		provider:     opts.Provider,
		logger:       opts.Logger,
		systemPrompt: opts.SystemPrompt,
		bypassEmail:  model.NormalizeEmail(opts.BypassEmail),
		memory:       &memory{users: opts.Users},
		locks:        newKeyedMutex(),
	}, nil
}

// Entitled reports whether an identity may generate. The bypass identity is
// always allowed, paid or not.
func (s *Service) Entitled(u model.User) bool {
	if s.bypassEmail != "" && u.Email == s.bypassEmail {
		return true
	}
	return u.HasPaid
}

// Generate runs one generation request for an identity. Calls for the same
// identity are serialized so user and assistant turns never interleave.
func (s *Service) Generate(ctx context.Context, email, prompt string) (Result, error) {
	email = model.NormalizeEmail(email)
	if prompt == "" {
		return Result{}, errors.New(errors.KindInvalidInput, "chat.generate", "prompt required")
	}

	u, err := s.users.Get(ctx, email)
	if err != nil {
		return Result{}, err
	}
	if !s.Entitled(u) {
		return Result{}, errors.New(errors.KindPaymentRequired, "chat.generate", "payment required")
	}

	lock := s.locks.get(email)
	lock.Lock()
	defer lock.Unlock()

	requestID := uuid.NewString()
	s.logger.Info("[LLM] generate request %s for %s", requestID, email)

	turns, err := s.memory.appendUser(ctx, email, prompt)
	if err != nil {
		return Result{}, err
	}

	reply, err := s.provider.Chat(ctx, buildContext(s.systemPrompt, turns))
	if err != nil {
		s.logger.Warn("[LLM] generate request %s failed: %v", requestID, err)
		eventbus.Publish(eventbus.EventChatFailed, eventbus.ChatEventData{
			Email:     email,
			RequestID: requestID,
			Prompt:    prompt,
			Error:     err.Error(),
		})
		return Result{}, err
	}

	// The raw reply goes into memory, not the parsed halves, so later
	// context reflects what the model actually said.
	if err := s.memory.appendAssistant(ctx, email, reply); err != nil {
		return Result{}, err
	}
	if err := s.users.Flush(ctx); err != nil {
		s.logger.Warn("[STORE] flush after generation failed: %v", err)
	}

	eventbus.Publish(eventbus.EventChatCompleted, eventbus.ChatEventData{
		Email:     email,
		RequestID: requestID,
		Prompt:    prompt,
	})
	return ParseReply(reply), nil
}

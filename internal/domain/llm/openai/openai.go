package openai

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"luaspark-server/internal/domain/llm"
	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/config"
	"luaspark-server/internal/platform/errors"
)

func init() {
	llm.Register(llm.ProviderOpenAI, func(cfg config.LLMConfig, logger model.Logger) (llm.Provider, error) {
		return New(cfg, logger)
	})
}

// Provider calls an OpenAI-compatible chat completion endpoint.
type Provider struct {
	client      *sdk.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      model.Logger
}

// New builds an OpenAI-backed provider from the LLM configuration.
func New(cfg config.LLMConfig, logger model.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "llm.openai", "api key is required")
	}

	clientCfg := sdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = sdk.GPT4oMini
	}

	return &Provider{
		client:      sdk.NewClientWithConfig(clientCfg),
		model:       modelName,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

// Chat sends the conversation upstream and returns the raw completion text.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req := sdk.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages:    make([]sdk.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, sdk.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrap(errors.KindUpstreamTimeout, "llm.openai", "completion timed out", err)
		}
		return "", errors.Wrap(errors.KindUpstreamFailed, "llm.openai", "completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindUpstreamFailed, "llm.openai", "completion returned no choices")
	}

	p.logger.Debug("[LLM] completion ok, model=%s tokens=%d", p.model, resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

var _ llm.Provider = (*Provider)(nil)

// String identifies the provider in logs.
func (p *Provider) String() string {
	return fmt.Sprintf("openai(%s)", p.model)
}

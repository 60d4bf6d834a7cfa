package llm

import (
	"fmt"
	"sync"

	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/config"
)

// Provider identifiers selectable via configuration.
const (
	ProviderOpenAI  = "openai"
	ProviderPolling = "polling"
)

// Factory constructs a Provider from configuration. Provider packages
// register themselves at init time.
type Factory func(cfg config.LLMConfig, logger model.Logger) (Provider, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a named provider constructor.
func Register(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

// Create instantiates the provider named in the configuration.
func Create(cfg config.LLMConfig, logger model.Logger) (Provider, error) {
	name := cfg.Provider
	if name == "" {
		name = ProviderOpenAI
	}

	factoryMu.RLock()
	f, ok := factories[name]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
	return f(cfg, logger)
}

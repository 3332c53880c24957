package llm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"niyamr/internal/config"
	"niyamr/internal/port"
)

// ProviderFactory creates a Completer from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig, logger *zap.Logger) (port.Completer, error)

// registry of provider factories, populated by providers.RegisterBuiltins
// or explicitly via RegisterProvider.
var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// NewCompleter creates a Completer from a provider config using the registered factory.
func NewCompleter(cfg *config.LLMProviderConfig, logger *zap.Logger) (port.Completer, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg, logger)
}

// NewChain builds the completion stack for cfg: every configured provider is
// wrapped in a RetryCompleter, and more than one provider is tried in order
// through a FallbackCompleter.
func NewChain(cfg *config.LLMConfig, logger *zap.Logger) (port.Completer, []string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		completers []port.Completer
		names      []string
	)
	for _, pc := range cfg.ProviderChain() {
		c, err := NewCompleter(pc, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating %s completer: %w", pc.Provider, err)
		}
		completers = append(completers, NewRetryCompleter(c, pc.Provider, RetryConfig{
			MaxRetries:        pc.MaxRetries,
			RequestsPerSecond: pc.RequestsPerSecond,
			Burst:             pc.Burst,
		}, logger))
		names = append(names, pc.Provider)
	}
	if len(completers) == 1 {
		return completers[0], names, nil
	}
	return NewFallbackCompleter(completers, names, logger), names, nil
}

// Package providers registers the built-in completion providers with the llm registry.
package providers

import (
	"go.uber.org/zap"

	"niyamr/internal/config"
	"niyamr/internal/llm"
	"niyamr/internal/llm/claude"
	"niyamr/internal/llm/gemini"
	"niyamr/internal/llm/openai"
	"niyamr/internal/port"
)

// RegisterBuiltins registers groq, openai, claude and gemini.
func RegisterBuiltins() {
	llm.RegisterProvider("groq", func(cfg *config.LLMProviderConfig, logger *zap.Logger) (port.Completer, error) {
		return openai.NewGroqCompleter(cfg, logger), nil
	})
	llm.RegisterProvider("openai", func(cfg *config.LLMProviderConfig, logger *zap.Logger) (port.Completer, error) {
		return openai.NewCompleter(cfg, logger), nil
	})
	llm.RegisterProvider("claude", func(cfg *config.LLMProviderConfig, logger *zap.Logger) (port.Completer, error) {
		return claude.NewCompleter(cfg, logger), nil
	})
	llm.RegisterProvider("gemini", func(cfg *config.LLMProviderConfig, logger *zap.Logger) (port.Completer, error) {
		return gemini.NewCompleter(cfg, logger), nil
	})
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"niyamr/internal/config"
	"niyamr/internal/llm"
	"niyamr/internal/port"
)

const (
	openAIURL   = "https://api.openai.com/v1/chat/completions"
	groqURL     = "https://api.groq.com/openai/v1/chat/completions"
	openAIModel = "gpt-4o-mini"
	groqModel   = "llama-3.1-8b-instant"
)

// Completer implements port.Completer against an OpenAI-compatible
// Chat Completions API (OpenAI itself, Groq).
type Completer struct {
	provider    string
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
}

// NewCompleter creates an OpenAI completer from a provider config.
func NewCompleter(cfg *config.LLMProviderConfig, logger *zap.Logger) *Completer {
	return newCompleter(cfg, "openai", openAIURL, openAIModel, logger)
}

// NewGroqCompleter creates a completer for Groq's OpenAI-compatible endpoint.
func NewGroqCompleter(cfg *config.LLMProviderConfig, logger *zap.Logger) *Completer {
	return newCompleter(cfg, "groq", groqURL, groqModel, logger)
}

func newCompleter(cfg *config.LLMProviderConfig, provider, endpoint, model string, logger *zap.Logger) *Completer {
	if cfg.DefaultModel != "" {
		model = cfg.DefaultModel
	}
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{
		provider:    provider,
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// apiResponse models the Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Model string `json:"model"`
}

func (c *Completer) Complete(ctx context.Context, prompt string) (*port.Completion, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	body, err := llm.PostJSON(ctx, c.client, c.provider, c.endpoint, headers, reqBody, c.logger)
	if err != nil {
		return nil, err
	}
	return c.parseResponse(body)
}

func (c *Completer) parseResponse(body []byte) (*port.Completion, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewCompletionError(c.provider, http.StatusOK, fmt.Errorf("unmarshaling response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewCompletionError(c.provider, http.StatusOK, fmt.Errorf("empty response from API: no choices"))
	}
	if resp.Choices[0].FinishReason == "length" {
		c.logger.Warn("completion truncated", zap.String("provider", c.provider), zap.String("model", c.model))
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &port.Completion{
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:    model,
		Provider: c.provider,
	}, nil
}

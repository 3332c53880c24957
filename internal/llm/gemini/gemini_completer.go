package gemini

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
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
)

// Completer implements port.Completer using Google's Gemini API.
type Completer struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
}

// NewCompleter creates a Gemini completer from a provider config.
func NewCompleter(cfg *config.LLMProviderConfig, logger *zap.Logger) *Completer {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
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
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

func (c *Completer) Complete(ctx context.Context, prompt string) (*port.Completion, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      c.temperature,
			"maxOutputTokens":  c.maxTokens,
			"responseMimeType": "application/json",
		},
	}
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	body, err := llm.PostJSON(ctx, c.client, "gemini", c.endpoint, headers, reqBody, c.logger)
	if err != nil {
		return nil, err
	}
	return parseResponse(body, c.model)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.Completion, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewCompletionError("gemini", http.StatusOK, fmt.Errorf("unmarshaling response: %w", err))
	}
	if len(resp.Candidates) == 0 {
		return nil, llm.NewCompletionError("gemini", http.StatusOK, fmt.Errorf("empty response from API: no candidates"))
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, llm.NewCompletionError("gemini", http.StatusOK, fmt.Errorf("empty response from API: no parts"))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return &port.Completion{
		Text:     strings.TrimSpace(b.String()),
		Model:    model,
		Provider: "gemini",
	}, nil
}

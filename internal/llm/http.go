package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 500

// PostJSON sends body as JSON to endpoint and returns the raw response body.
// Non-200 responses become a CompletionError; HTTP 429 additionally carries a
// RateLimitError built from the Retry-After header.
func PostJSON(ctx context.Context, client *http.Client, provider, endpoint string, headers map[string]string, body any, logger *zap.Logger) ([]byte, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reqID := uuid.New().String()
	start := time.Now()

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, NewCompletionError(provider, 0, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, NewCompletionError(provider, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("llm request failed",
			zap.String("req_id", reqID),
			zap.String("provider", provider),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, NewCompletionError(provider, 0, fmt.Errorf("calling %s API: %w", provider, err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewCompletionError(provider, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	logger.Debug("llm response",
		zap.String("req_id", reqID),
		zap.String("provider", provider),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, Truncate(string(respBody), maxErrorBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, NewCompletionError(provider, resp.StatusCode, NewRateLimitError(provider, baseErr, retryAfter))
		}
		return nil, NewCompletionError(provider, resp.StatusCode, baseErr)
	}
	return respBody, nil
}

// Truncate shortens s to maxLen bytes, marking the cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

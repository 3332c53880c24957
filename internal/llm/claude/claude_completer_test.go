package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niyamr/internal/config"
	"niyamr/internal/llm"
	"niyamr/internal/llm/claude"
)

func TestClaudeCompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-claude-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 1)
		assert.Equal(t, "judge this", messages[0].(map[string]interface{})["content"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": `{"status":"fail",`},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": `"confidence":10}`},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	c := claude.NewCompleter(&config.LLMProviderConfig{APIKey: "test-claude-key", Endpoint: server.URL}, nil)
	out, err := c.Complete(context.Background(), "judge this")

	require.NoError(t, err)
	assert.Equal(t, `{"status":"fail","confidence":10}`, out.Text)
	assert.Equal(t, "claude", out.Provider)
}

func TestClaudeCompleter_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	c := claude.NewCompleter(&config.LLMProviderConfig{Endpoint: server.URL}, nil)
	_, err := c.Complete(context.Background(), "p")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestClaudeCompleter_Complete_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error"}}`))
	}))
	defer server.Close()

	c := claude.NewCompleter(&config.LLMProviderConfig{Endpoint: server.URL}, nil)
	_, err := c.Complete(context.Background(), "p")

	var cErr *llm.CompletionError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 529, cErr.StatusCode)
	assert.True(t, llm.IsRetryable(err))
}

package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"niyamr/internal/llm"
	"niyamr/internal/port"
	"niyamr/mocks"
)

func ok(text string) *port.Completion {
	return &port.Completion{Text: text, Provider: "groq"}
}

// recordSleeps captures backoff delays without sleeping.
func recordSleeps(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestRetryCompleter_SucceedsFirstTry(t *testing.T) {
	next := new(mocks.MockCompleter)
	next.On("Complete", mock.Anything, "p").Return(ok("done"), nil).Once()

	var delays []time.Duration
	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 2}, nil).WithSleep(recordSleeps(&delays))

	out, err := r.Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "done", out.Text)
	assert.Empty(t, delays)
	next.AssertExpectations(t)
}

func TestRetryCompleter_RetriesServerErrors(t *testing.T) {
	next := new(mocks.MockCompleter)
	next.On("Complete", mock.Anything, "p").Return(nil, llm.NewCompletionError("groq", 503, errors.New("busy"))).Twice()
	next.On("Complete", mock.Anything, "p").Return(ok("third time"), nil).Once()

	var delays []time.Duration
	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 2, BaseDelay: 100 * time.Millisecond}, nil).
		WithSleep(recordSleeps(&delays))

	out, err := r.Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "third time", out.Text)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
	next.AssertExpectations(t)
}

func TestRetryCompleter_GivesUpAfterMaxRetries(t *testing.T) {
	next := new(mocks.MockCompleter)
	lastErr := llm.NewCompletionError("groq", 500, errors.New("still down"))
	next.On("Complete", mock.Anything, "p").Return(nil, lastErr).Times(3)

	var delays []time.Duration
	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 2}, nil).WithSleep(recordSleeps(&delays))

	_, err := r.Complete(context.Background(), "p")

	assert.ErrorIs(t, err, lastErr)
	assert.Len(t, delays, 2)
	next.AssertExpectations(t)
}

func TestRetryCompleter_DoesNotRetryClientErrors(t *testing.T) {
	next := new(mocks.MockCompleter)
	next.On("Complete", mock.Anything, "p").Return(nil, llm.NewCompletionError("groq", 401, errors.New("bad key"))).Once()

	var delays []time.Duration
	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 5}, nil).WithSleep(recordSleeps(&delays))

	_, err := r.Complete(context.Background(), "p")

	require.Error(t, err)
	assert.Empty(t, delays)
	next.AssertNumberOfCalls(t, "Complete", 1)
}

func TestRetryCompleter_HonoursRetryAfter(t *testing.T) {
	next := new(mocks.MockCompleter)
	rl := llm.NewCompletionError("groq", 429, llm.NewRateLimitError("groq", errors.New("slow down"), 3))
	next.On("Complete", mock.Anything, "p").Return(nil, rl).Once()
	next.On("Complete", mock.Anything, "p").Return(ok("ok"), nil).Once()

	var delays []time.Duration
	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Second}, nil).
		WithSleep(recordSleeps(&delays))

	_, err := r.Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, delays)
}

func TestRetryCompleter_BackoffCappedAtMaxDelay(t *testing.T) {
	next := new(mocks.MockCompleter)
	rl := llm.NewCompletionError("groq", 429, llm.NewRateLimitError("groq", errors.New("slow down"), 60))
	next.On("Complete", mock.Anything, "p").Return(nil, rl).Once()
	next.On("Complete", mock.Anything, "p").Return(ok("ok"), nil).Once()

	var delays []time.Duration
	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 1, MaxDelay: 2 * time.Second}, nil).
		WithSleep(recordSleeps(&delays))

	_, err := r.Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, delays)
}

func TestRetryCompleter_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	next := new(mocks.MockCompleter)
	next.On("Complete", mock.Anything, "p").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, llm.NewCompletionError("groq", 0, context.Canceled)).Once()

	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{MaxRetries: 3}, nil)

	_, err := r.Complete(ctx, "p")

	assert.ErrorIs(t, err, context.Canceled)
	next.AssertNumberOfCalls(t, "Complete", 1)
}

func TestRetryCompleter_RateLimiterHonoursContext(t *testing.T) {
	next := new(mocks.MockCompleter)
	next.On("Complete", mock.Anything, "p").Return(ok("ok"), nil)

	r := llm.NewRetryCompleter(next, "groq", llm.RetryConfig{RequestsPerSecond: 0.001, Burst: 1}, nil)

	_, err := r.Complete(context.Background(), "p")
	require.NoError(t, err)

	// The single token is spent; the next wait cannot finish before the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Complete(ctx, "p")

	require.Error(t, err)
	var cErr *llm.CompletionError
	assert.ErrorAs(t, err, &cErr)
	next.AssertNumberOfCalls(t, "Complete", 1)
}

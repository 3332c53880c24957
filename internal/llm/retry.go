package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"niyamr/internal/port"
)

// RetryConfig bounds retries and client-side request rate for one provider.
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestsPerSecond float64 // 0 disables client-side limiting
	Burst             int
}

// RetryCompleter retries retryable completion failures with exponential
// backoff and paces requests with a token bucket.
// It implements port.Completer.
type RetryCompleter struct {
	next    port.Completer
	name    string
	cfg     RetryConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetryCompleter wraps next with the retry and rate limit policy in cfg.
func NewRetryCompleter(next port.Completer, name string, cfg RetryConfig, logger *zap.Logger) *RetryCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &RetryCompleter{
		next:    next,
		name:    name,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// WithSleep replaces the backoff sleeper (for testing).
func (r *RetryCompleter) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *RetryCompleter {
	r.sleep = sleep
	return r
}

func (r *RetryCompleter) Complete(ctx context.Context, prompt string) (*port.Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt, lastErr)
			r.logger.Info("retrying completion",
				zap.String("provider", r.name),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := r.sleep(ctx, delay); err != nil {
				return nil, NewCompletionError(r.name, 0, err)
			}
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, NewCompletionError(r.name, 0, err)
			}
		}

		out, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// backoff doubles BaseDelay per attempt, stretched to a provider's
// Retry-After hint, and never exceeds MaxDelay.
func (r *RetryCompleter) backoff(attempt int, lastErr error) time.Duration {
	delay := r.cfg.BaseDelay << (attempt - 1)
	var rlErr *RateLimitError
	if errors.As(lastErr, &rlErr) && rlErr.RetryAfter > delay {
		delay = rlErr.RetryAfter
	}
	if delay <= 0 || delay > r.cfg.MaxDelay {
		delay = r.cfg.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

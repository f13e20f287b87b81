package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	llmclient "testsmith/internal/llmClient"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier drives a Client to completion, retrying rate-limited attempts with
// exponential backoff. MaxAttempts counts total calls, not retries; the
// delay starts at InitialDelay and doubles after each rate-limit signal.
// Failed outcomes are returned immediately as *RemoteError.
type Retrier struct {
	Client       llmclient.Client
	MaxAttempts  int
	InitialDelay time.Duration
	// Sleep defaults to a context-aware timer; tests replace it.
	Sleep  SleepFunc
	Logger *zap.Logger
}

// NewRetrier returns a Retrier using the default budget and delay.
func NewRetrier(c llmclient.Client, logger *zap.Logger) *Retrier {
	return &Retrier{
		Client:       c,
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Logger:       logger,
	}
}

// Generate implements Generator.
func (r *Retrier) Generate(ctx context.Context, prompt string) (string, error) {
	if r.Client == nil {
		return "", errors.New("llm: retrier has no client")
	}
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.InitialDelay
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var last error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out := r.Client.Attempt(ctx, prompt)
		switch out.Status {
		case llmclient.StatusOK:
			return out.Text, nil
		case llmclient.StatusFailed:
			if ctx.Err() != nil && errors.Is(out.Err, ctx.Err()) {
				return "", ctx.Err()
			}
			return "", &RemoteError{Provider: r.Client.Name(), Err: out.Err}
		}
		last = out.Err
		if i == attempts {
			break
		}
		log.Warn("rate limited, backing off",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
	return "", &RateLimitExceededError{Attempts: attempts, Last: last}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

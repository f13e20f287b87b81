package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	llmclient "testsmith/internal/llmClient"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, logging).
type Middleware func(llmclient.Client) llmclient.Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.Client, mws ...Middleware) llmclient.Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit throttles attempts to rps per second with the given burst. Every
// client produced by one RateLimit value shares a single limiter, so workers
// wrapping the same base client are limited globally. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return func(next llmclient.Client) llmclient.Client { return next }
	}
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next llmclient.Client) llmclient.Client {
		return &rateLimited{next: next, lim: lim}
	}
}

type rateLimited struct {
	next llmclient.Client
	lim  *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Attempt(ctx context.Context, prompt string) llmclient.Outcome {
	if err := c.lim.Wait(ctx); err != nil {
		return llmclient.Failed(err)
	}
	return c.next.Attempt(ctx, prompt)
}

// -------- Logging --------

// WithLogging logs request size, latency and the outcome of every attempt.
// A nil logger disables it.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next llmclient.Client) llmclient.Client {
		if logger == nil {
			return next
		}
		return &logging{next: next, log: logger.With(zap.String("client", next.Name()))}
	}
}

type logging struct {
	next llmclient.Client
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Attempt(ctx context.Context, prompt string) llmclient.Outcome {
	start := time.Now()
	l.log.Debug("llm request", zap.Int("bytes", len(prompt)))
	out := l.next.Attempt(ctx, prompt)
	fields := []zap.Field{
		zap.String("status", out.Status.String()),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch out.Status {
	case llmclient.StatusOK:
		l.log.Debug("llm response", append(fields, zap.Int("bytes", len(out.Text)))...)
	case llmclient.StatusRateLimited:
		l.log.Warn("llm rate limited", append(fields, zap.Error(out.Err))...)
	default:
		l.log.Error("llm error", append(fields, zap.Error(out.Err))...)
	}
	return out
}

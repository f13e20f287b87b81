package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "testsmith/internal/llmClient"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestRetrier(c llmclient.Client, max int, rec *sleepRecorder) *Retrier {
	return &Retrier{Client: c, MaxAttempts: max, InitialDelay: 10 * time.Millisecond, Sleep: rec.sleep}
}

var errQuota = errors.New("429 quota")

func TestRetrier_SuccessFirstAttempt(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.OK("def test_add(): pass"))
	rec := &sleepRecorder{}
	out, err := newTestRetrier(fake, 3, rec).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "def test_add(): pass", out)
	assert.Equal(t, 1, fake.Calls())
	assert.Empty(t, rec.delays)
}

func TestRetrier_RateLimitedThenSuccess(t *testing.T) {
	fake := llmclient.NewFakeClient(
		llmclient.RateLimited(errQuota),
		llmclient.RateLimited(errQuota),
		llmclient.OK("ok"),
	)
	rec := &sleepRecorder{}
	out, err := newTestRetrier(fake, 3, rec).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, fake.Calls())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, rec.delays)
}

func TestRetrier_ExhaustsBudget(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.RateLimited(errQuota))
	rec := &sleepRecorder{}
	_, err := newTestRetrier(fake, 3, rec).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))
	assert.ErrorIs(t, err, errQuota)

	var rl *RateLimitExceededError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 3, rl.Attempts)
	assert.Equal(t, 3, fake.Calls())
	// no sleep after the final attempt
	assert.Len(t, rec.delays, 2)
}

func TestRetrier_FailedIsNotRetried(t *testing.T) {
	errAuth := errors.New("401 invalid key")
	fake := llmclient.NewFakeClient(llmclient.Failed(errAuth), llmclient.OK("never"))
	rec := &sleepRecorder{}
	_, err := newTestRetrier(fake, 5, rec).Generate(context.Background(), "p")

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "FakeLLM", remote.Provider)
	assert.ErrorIs(t, err, errAuth)
	assert.False(t, errors.Is(err, ErrRateLimitExceeded))
	assert.Equal(t, 1, fake.Calls())
	assert.Empty(t, rec.delays)
}

func TestRetrier_ZeroAttemptsStillCallsOnce(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.OK("x"))
	out, err := newTestRetrier(fake, 0, &sleepRecorder{}).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	assert.Equal(t, 1, fake.Calls())
}

func TestRetrier_ContextCancelledDuringBackoff(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.RateLimited(errQuota))
	ctx, cancel := context.WithCancel(context.Background())
	r := &Retrier{
		Client:       fake,
		MaxAttempts:  5,
		InitialDelay: time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return sleepCtx(ctx, d)
		},
	}
	_, err := r.Generate(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fake.Calls())
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestRateLimitExceededError_Message(t *testing.T) {
	err := &RateLimitExceededError{Attempts: 4}
	assert.Equal(t, "llm: rate limited after 4 attempts", err.Error())
}

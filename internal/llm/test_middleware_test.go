package llm

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	llmclient "testsmith/internal/llmClient"
)

type tagClient struct {
	llmclient.Client
	tag   string
	trace *[]string
}

func (c *tagClient) Attempt(ctx context.Context, prompt string) llmclient.Outcome {
	*c.trace = append(*c.trace, c.tag)
	return c.Client.Attempt(ctx, prompt)
}

func tagging(tag string, trace *[]string) Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &tagClient{Client: next, tag: tag, trace: trace}
	}
}

func TestWrap_Order(t *testing.T) {
	var trace []string
	c := Wrap(llmclient.NewFakeClient(), tagging("A", &trace), tagging("B", &trace))
	c.Attempt(context.Background(), "p")
	assert.Equal(t, []string{"A", "B"}, trace)
}

func TestWrap_NoMiddlewares(t *testing.T) {
	fake := llmclient.NewFakeClient()
	assert.Same(t, fake, Wrap(fake).(*llmclient.FakeClient))
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	fake := llmclient.NewFakeClient()
	assert.Same(t, fake, RateLimit(0, 1)(fake).(*llmclient.FakeClient))
}

func TestRateLimit_SharedAcrossWorkers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	fake := llmclient.NewFakeClient(llmclient.OK("ok"))
	mw := RateLimit(50, 1)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := mw(fake).Attempt(context.Background(), "p")
			assert.Equal(t, llmclient.StatusOK, out.Status)
		}()
	}
	wg.Wait()

	// one token up front then 3 more at 20ms intervals
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 4, fake.Calls())
}

func TestRateLimit_CancelledContext(t *testing.T) {
	fake := llmclient.NewFakeClient()
	c := RateLimit(0.001, 1)(fake)
	// drain the single burst token
	require.Equal(t, llmclient.StatusOK, c.Attempt(context.Background(), "p").Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := c.Attempt(ctx, "p")
	assert.Equal(t, llmclient.StatusFailed, out.Status)
	assert.Equal(t, 1, fake.Calls())
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fake := llmclient.NewFakeClient(
		llmclient.OK("hello"),
		llmclient.RateLimited(errQuota),
		llmclient.Failed(errQuota),
	)
	c := WithLogging(zap.New(core))(fake)
	assert.Equal(t, "FakeLLM", c.Name())

	for i := 0; i < 3; i++ {
		c.Attempt(context.Background(), strings.Repeat("x", 7))
	}

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{
		"llm request", "llm response",
		"llm request", "llm rate limited",
		"llm request", "llm error",
	}, msgs)
	assert.Equal(t, "FakeLLM", logs.All()[0].ContextMap()["client"])
	assert.EqualValues(t, 7, logs.All()[0].ContextMap()["bytes"])
}

func TestWithLogging_NilLogger(t *testing.T) {
	fake := llmclient.NewFakeClient()
	assert.Same(t, fake, WithLogging(nil)(fake).(*llmclient.FakeClient))
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(_ context.Context, p string) (string, error) {
		return strings.ToUpper(p), nil
	})
	out, err := g.Generate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}

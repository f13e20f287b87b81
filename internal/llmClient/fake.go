package llmclient

import (
	"context"
	"sync"
)

// FakeClient replays scripted outcomes for offline runs and tests. Once the
// script is exhausted the last outcome is repeated; an empty script always
// answers OK("").
type FakeClient struct {
	mu      sync.Mutex
	script  []Outcome
	prompts []string
}

func NewFakeClient(script ...Outcome) *FakeClient {
	return &FakeClient{script: script}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Attempt(ctx context.Context, prompt string) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}
	if len(f.script) == 0 {
		return OK("")
	}
	n := len(f.prompts) - 1
	if n >= len(f.script) {
		n = len(f.script) - 1
	}
	return f.script[n]
}

// Calls returns how many times Attempt was invoked.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

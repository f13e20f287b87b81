// Package llm layers retry, rate limiting and logging on top of the raw
// provider clients in llmClient.
package llm

import "context"

// Generator turns a prompt into generated text. It is the boundary every
// pipeline depends on, so tests can substitute it freely.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

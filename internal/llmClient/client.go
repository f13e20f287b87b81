package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Status classifies the result of one remote call.
type Status int

const (
	// StatusOK means Text holds the generated payload.
	StatusOK Status = iota
	// StatusRateLimited means the service answered with its "too many
	// requests" signal; the call may be retried after a pause.
	StatusRateLimited
	// StatusFailed means any other failure; retrying will not help.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRateLimited:
		return "rate_limited"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the explicit result of a single remote call. Err is set for
// StatusRateLimited and StatusFailed.
type Outcome struct {
	Status Status
	Text   string
	Err    error
}

// OK wraps a successful payload.
func OK(text string) Outcome { return Outcome{Status: StatusOK, Text: text} }

// RateLimited wraps a rate-limit signal.
func RateLimited(err error) Outcome { return Outcome{Status: StatusRateLimited, Err: err} }

// Failed wraps a non-recoverable failure.
func Failed(err error) Outcome { return Outcome{Status: StatusFailed, Err: err} }

// Client performs one text-generation call per Attempt. Implementations do not
// retry; backoff is layered on top by the llm package.
type Client interface {
	Name() string
	Attempt(ctx context.Context, prompt string) Outcome
	Close() error
}

// ModelLister is implemented by clients that can enumerate the models visible
// to their credential.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelInfo describes one remote model.
type ModelInfo struct {
	Name    string
	Methods []string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrEmptyResponse is reported when the service answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Config is the explicit configuration handed to a provider at construction.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// New builds the client for cfg.Provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

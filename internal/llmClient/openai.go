package llmclient

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when Config.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient calls an OpenAI-compatible Chat Completions API. Other
// compatible services (Groq, local gateways) are reached through
// Config.BaseURL, e.g. "https://api.groq.com/openai/v1".
type OpenAIClient struct {
	cli   *openai.Client
	model string
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{cli: openai.NewClientWithConfig(oc), model: model}, nil
}

func (o *OpenAIClient) Name() string { return "OpenAI:" + o.model }
func (o *OpenAIClient) Close() error { return nil }

// Attempt sends prompt as a single user message.
func (o *OpenAIClient) Attempt(ctx context.Context, prompt string) Outcome {
	resp, err := o.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Failed(ErrEmptyResponse)
	}
	return OK(resp.Choices[0].Message.Content)
}

func (o *OpenAIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	list, err := o.cli.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, ModelInfo{Name: m.ID})
	}
	return out, nil
}

func classifyOpenAIError(err error) Outcome {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return RateLimited(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return RateLimited(err)
	}
	return Failed(err)
}

package llmclient

import (
	"context"
	"errors"
	"net/http"
	"strings"

	genai "google.golang.org/genai"
)

// DefaultGeminiModel is used when Config.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is a thin wrapper around the official genai client.
// It only performs the API call; retries and rate limiting are layered on
// top by the llm package.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// Attempt sends prompt as a single user turn and returns the text parts of
// the first candidate unmodified.
func (g *GeminiClient) Attempt(ctx context.Context, prompt string) Outcome {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return classifyGeminiError(err)
	}
	txt := geminiText(resp)
	if txt == "" {
		return Failed(ErrEmptyResponse)
	}
	return OK(txt)
}

// ListModels pages through every model visible to the API key.
func (g *GeminiClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	page, err := g.cli.Models.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	var out []ModelInfo
	for {
		for _, m := range page.Items {
			if m == nil {
				continue
			}
			out = append(out, ModelInfo{Name: m.Name, Methods: m.SupportedActions})
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// classifyGeminiError maps HTTP 429 / RESOURCE_EXHAUSTED to a rate-limit
// outcome and everything else to a failure.
func classifyGeminiError(err error) Outcome {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isGeminiRateLimit(apiErr) {
		return RateLimited(err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && isGeminiRateLimit(*apiErrPtr) {
		return RateLimited(err)
	}
	return Failed(err)
}

func isGeminiRateLimit(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

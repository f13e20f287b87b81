package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

type requestLog struct {
	mu   sync.Mutex
	reqs []map[string]any
}

func (l *requestLog) all() []map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]map[string]any(nil), l.reqs...)
}

func openAIServer(t *testing.T, status int, body any) (*httptest.Server, *requestLog) {
	t.Helper()
	seen := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen.mu.Lock()
		seen.reqs = append(seen.reqs, req)
		seen.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAIClient_Success(t *testing.T) {
	srv, seen := openAIServer(t, http.StatusOK, chatResponse("def test_add():\n    assert add(1, 2) == 3\n"))
	cli, err := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
	require.NoError(t, err)

	out := cli.Attempt(context.Background(), "write tests")
	require.Equal(t, StatusOK, out.Status, "err: %v", out.Err)
	assert.Equal(t, "def test_add():\n    assert add(1, 2) == 3\n", out.Text)
	reqs := seen.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "test-model", reqs[0]["model"])
	assert.Equal(t, "OpenAI:test-model", cli.Name())
}

func TestOpenAIClient_TooManyRequestsIsRateLimited(t *testing.T) {
	srv, _ := openAIServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "slow down", "type": "rate_limit_error", "code": "rate_limit_exceeded"},
	})
	cli, err := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out := cli.Attempt(context.Background(), "p")
	assert.Equal(t, StatusRateLimited, out.Status)
	assert.Error(t, out.Err)
}

func TestOpenAIClient_ServerErrorIsFailure(t *testing.T) {
	srv, _ := openAIServer(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
	})
	cli, err := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out := cli.Attempt(context.Background(), "p")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Error(t, out.Err)
}

func TestOpenAIClient_EmptyChoicesIsFailure(t *testing.T) {
	resp := chatResponse("")
	resp["choices"] = []any{}
	srv, _ := openAIServer(t, http.StatusOK, resp)
	cli, err := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out := cli.Attempt(context.Background(), "p")
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrEmptyResponse)
}

func TestNewClients_RequireKey(t *testing.T) {
	_, err := NewOpenAIClient(Config{})
	assert.Error(t, err)
	_, err = NewGeminiClient(context.Background(), Config{})
	assert.Error(t, err)
	_, err = New(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}

func TestClassifyGeminiError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"http 429", genai.APIError{Code: 429, Message: "quota"}, StatusRateLimited},
		{"resource exhausted", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, StatusRateLimited},
		{"wrapped 429", fmt.Errorf("call: %w", genai.APIError{Code: 429}), StatusRateLimited},
		{"pointer 429", &genai.APIError{Code: 429}, StatusRateLimited},
		{"permission denied", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, StatusFailed},
		{"transport", errors.New("connection reset"), StatusFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := classifyGeminiError(c.err)
			assert.Equal(t, c.want, out.Status)
			assert.Equal(t, c.err, out.Err)
		})
	}
}

func TestGeminiText_JoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: "import pytest\n"}, {Text: "def test_x(): pass\n"}}},
	}}}
	assert.Equal(t, "import pytest\ndef test_x(): pass\n", geminiText(resp))
	assert.Equal(t, "", geminiText(nil))
	assert.Equal(t, "", geminiText(&genai.GenerateContentResponse{}))
}

func TestFakeClient_ReplaysScript(t *testing.T) {
	f := NewFakeClient(RateLimited(errors.New("429")), OK("done"))
	ctx := context.Background()

	assert.Equal(t, StatusRateLimited, f.Attempt(ctx, "a").Status)
	assert.Equal(t, OK("done"), f.Attempt(ctx, "b"))
	assert.Equal(t, OK("done"), f.Attempt(ctx, "c"))
	assert.Equal(t, 3, f.Calls())
	assert.Equal(t, []string{"a", "b", "c"}, f.Prompts())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "rate_limited", StatusRateLimited.String())
	assert.Equal(t, "failed", StatusFailed.String())
}

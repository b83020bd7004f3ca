package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akshay-abraham/lyra/internal/llm"
)

func TestCompleteSendsRequestAndParsesOutputText(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 5*time.Second)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/responses", r.URL.Path)
			require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Equal(t, "gpt-4o-mini", reqBody["model"])
			require.Equal(t, "what is 2+2?", reqBody["input"])

			return jsonResponse(`{"output_text": "  four  "}`), nil
		}),
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Model:  "gpt-4o-mini",
		Prompt: "what is 2+2?",
	})
	require.NoError(t, err)
	require.Equal(t, "four", resp.Text)
	require.Equal(t, "openai", resp.ProviderName)
}

func TestCompleteFallsBackToOutputItems(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(`{
				"output": [
					{"type": "reasoning", "content": []},
					{"type": "message", "content": [
						{"type": "output_text", "text": "part one "},
						{"type": "output_text", "text": "part two"}
					]}
				]
			}`), nil
		}),
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "q"})
	require.NoError(t, err)
	require.Equal(t, "part one part two", resp.Text)
}

func TestCompleteEmptyBodyIsSuccessWithEmptyText(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(`{}`), nil
		}),
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "q"})
	require.NoError(t, err)
	require.Empty(t, resp.Text)
}

func TestCompleteReturnsUpstreamErrorWithBody(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"error": "rate limited"}`)),
			}, nil
		}),
	}

	_, err := p.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "q"})
	var upstream *llm.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	require.Contains(t, upstream.Body, "rate limited")
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	require.True(t, NewProvider("openai", "", "key", 0).Configured())
	require.False(t, NewProvider("openai", "", "", 0).Configured())
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

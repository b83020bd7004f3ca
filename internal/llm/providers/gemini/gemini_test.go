package gemini

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

func TestCompleteSendsContentsAndAssemblesParts(t *testing.T) {
	t.Parallel()

	p := NewProvider("gemini", "http://mock", "secret", 5*time.Second)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
			require.Equal(t, "secret", r.URL.Query().Get("key"))
			require.Empty(t, r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody generateRequest
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Len(t, reqBody.Contents, 1)
			require.Equal(t, "user", reqBody.Contents[0].Role)
			require.Equal(t, "what is gravity?", reqBody.Contents[0].Parts[0].Text)

			return jsonResponse(`{
				"candidates": [{
					"content": {"role": "model", "parts": [
						{"text": "Gravity is "},
						{"text": "a force."}
					]},
					"finishReason": "STOP"
				}]
			}`), nil
		}),
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Model:  "gemini-2.0-flash",
		Prompt: "what is gravity?",
	})
	require.NoError(t, err)
	require.Equal(t, "Gravity is a force.", resp.Text)
}

func TestCompleteNoCandidatesIsSuccessWithEmptyText(t *testing.T) {
	t.Parallel()

	p := NewProvider("gemini", "http://mock", "secret", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(`{"candidates": []}`), nil
		}),
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "q"})
	require.NoError(t, err)
	require.Empty(t, resp.Text)
}

func TestCompleteReturnsUpstreamErrorWithBody(t *testing.T) {
	t.Parallel()

	p := NewProvider("gemini", "http://mock", "secret", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader("overloaded")),
			}, nil
		}),
	}

	_, err := p.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "q"})
	var upstream *llm.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	require.Equal(t, "overloaded", upstream.Body)
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

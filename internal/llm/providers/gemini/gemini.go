// Package gemini implements the generate-content-style provider adapter.
// Unlike the bearer-token families, Gemini authenticates with an API key in
// the query string of a model-parameterized endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akshay-abraham/lyra/internal/llm"
)

// Provider calls the Gemini generateContent API.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewProvider constructs a Provider with sane defaults.
func NewProvider(name, baseURL, apiKey string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Configured reports whether the API key is present.
func (p *Provider) Configured() bool {
	return p.apiKey != ""
}

// Complete executes a non-streaming generateContent call.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if req.Model == "" {
		return llm.CompletionResponse{}, fmt.Errorf("model is required")
	}

	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: req.Prompt}}},
		},
		GenerationConfig: &generationConfig{Temperature: req.Temperature},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(req.Model), url.QueryEscape(p.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(httpReq)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return llm.CompletionResponse{}, &llm.UpstreamError{
			Provider:   p.name,
			Model:      req.Model,
			StatusCode: res.StatusCode,
			Body:       string(b),
		}
	}

	var resp generateResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return llm.CompletionResponse{
		Text:         strings.TrimSpace(assembleText(resp)),
		ProviderName: p.name,
		Model:        req.Model,
		RawResponse:  resp,
	}, nil
}

// assembleText concatenates the part texts of the first candidate.
func assembleText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		b.WriteString(pt.Text)
	}
	return b.String()
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

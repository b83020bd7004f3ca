// Package deepseek implements the chat-completions-style provider adapter,
// compatible with DeepSeek and other OpenAI-chat-compatible gateways.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akshay-abraham/lyra/internal/llm"
)

const systemMessage = "You are a tutoring assistant. Follow the instructions in the user message exactly."

// Provider calls a chat-completions endpoint.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewProvider constructs a Provider with sane defaults.
func NewProvider(name, baseURL, apiKey string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
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

// Configured reports whether the bearer credential is present.
func (p *Provider) Configured() bool {
	return p.apiKey != ""
}

// Complete executes a non-streaming chat completion.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if req.Model == "" {
		return llm.CompletionResponse{}, fmt.Errorf("model is required")
	}

	body := chatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: req.Prompt},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

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

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("decode response: %w", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	return llm.CompletionResponse{
		Text:         strings.TrimSpace(text),
		ProviderName: p.name,
		Model:        req.Model,
		RawResponse:  resp,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
}

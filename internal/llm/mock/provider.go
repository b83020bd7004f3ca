// Package mock provides a test double for llm.Provider.
package mock

import (
	"context"

	"github.com/akshay-abraham/lyra/internal/llm"
)

// Provider is a test double implementing llm.Provider.
type Provider struct {
	NameValue    string
	Unconfigured bool
	CompleteFn   func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error)
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Configured() bool {
	return !p.Unconfigured
}

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if p.CompleteFn != nil {
		return p.CompleteFn(ctx, req)
	}
	return llm.CompletionResponse{
		Text:         "mock",
		ProviderName: p.Name(),
		Model:        req.Model,
	}, nil
}

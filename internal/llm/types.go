package llm

import "context"

// CompletionRequest is the input for provider adapters: one prompt blob built
// upstream, the physical model name, and sampling temperature.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
}

// CompletionResponse is the normalized result of a provider call. Text is
// trimmed; an empty Text with a nil error means the upstream answered but no
// text was extractable, which callers must validate downstream.
type CompletionResponse struct {
	Text         string
	ProviderName string
	Model        string
	RawResponse  interface{}
}

// Provider defines the contract for upstream LLM provider adapters.
type Provider interface {
	Name() string
	// Configured reports whether the credential this provider needs is present.
	Configured() bool
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

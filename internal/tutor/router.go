// Package tutor routes a tutoring request to the right provider adapter and
// normalizes the result.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akshay-abraham/lyra/internal/llm"
	"github.com/akshay-abraham/lyra/internal/observability"
)

// Request is a single tutoring invocation. SystemPrompt and ExampleAnswers
// carry teacher customization when present; Model selects a registered route
// (empty means the default).
type Request struct {
	Problem        string
	SystemPrompt   string
	ExampleAnswers []string
	Model          string
}

// Result is the normalized successful outcome of a routed request.
type Result struct {
	Response string
	Provider string
	Model    string
}

// Router is the stateless per-call coordinator: resolve the route, build the
// prompt, verify credentials, call the adapter, and apply the fallback policy.
type Router struct {
	registry *llm.Registry
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewRouter constructs a Router.
func NewRouter(registry *llm.Registry, logger *zap.Logger, metrics *observability.Metrics) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{registry: registry, logger: logger, metrics: metrics}
}

// Route executes the request. Fallback is attempted at most once, and only
// when the resolved route declares a fallback model; other routes fail on the
// first error. An empty extracted text is terminal, not retried.
func (r *Router) Route(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Problem) == "" {
		return Result{}, fmt.Errorf("problem statement is required")
	}

	provider, route, err := r.registry.Resolve(req.Model)
	if err != nil {
		return Result{}, err
	}

	if !provider.Configured() {
		return Result{}, &llm.ConfigurationError{Provider: provider.Name()}
	}

	prompt := BuildPrompt(req)

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model:       route.Model,
		Prompt:      prompt,
		Temperature: route.Temperature,
	})
	if err != nil && route.Fallback != "" {
		r.metrics.RecordFallbackRetry(provider.Name())
		r.logger.Warn("primary model failed, retrying with fallback",
			zap.String("provider", provider.Name()),
			zap.String("model", route.Model),
			zap.String("fallback", route.Fallback),
			zap.Error(err))

		resp, err = provider.Complete(ctx, llm.CompletionRequest{
			Model:       route.Fallback,
			Prompt:      prompt,
			Temperature: route.Temperature,
		})
	}
	if err != nil {
		r.metrics.RecordProviderFailure(provider.Name(), route.Model)
		return Result{}, err
	}

	if resp.Text == "" {
		return Result{}, llm.ErrEmptyResponse
	}

	return Result{
		Response: resp.Text,
		Provider: provider.Name(),
		Model:    resp.Model,
	}, nil
}

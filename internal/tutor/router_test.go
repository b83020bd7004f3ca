package tutor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akshay-abraham/lyra/internal/llm"
	llmmock "github.com/akshay-abraham/lyra/internal/llm/mock"
	"github.com/akshay-abraham/lyra/internal/tutor"
)

func newRegistry(p llm.Provider, route llm.ModelRoute) *llm.Registry {
	reg := llm.NewRegistry()
	reg.RegisterProvider("mock", p)
	route.Provider = "mock"
	reg.RegisterModel("main", route, true)
	return reg
}

func TestRouteSuccess(t *testing.T) {
	var calls int
	p := &llmmock.Provider{
		CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
			calls++
			require.Equal(t, "upstream-model", req.Model)
			require.Contains(t, req.Prompt, "what is 2+2?")
			return llm.CompletionResponse{Text: "four", Model: req.Model}, nil
		},
	}
	router := tutor.NewRouter(newRegistry(p, llm.ModelRoute{Model: "upstream-model"}), nil, nil)

	result, err := router.Route(context.Background(), tutor.Request{Problem: "what is 2+2?"})
	require.NoError(t, err)
	require.Equal(t, "four", result.Response)
	require.Equal(t, 1, calls)
}

func TestRouteRequiresProblem(t *testing.T) {
	router := tutor.NewRouter(newRegistry(&llmmock.Provider{}, llm.ModelRoute{Model: "m"}), nil, nil)

	_, err := router.Route(context.Background(), tutor.Request{Problem: "   "})
	require.Error(t, err)
}

func TestRouteFailsBeforeNetworkWithoutCredential(t *testing.T) {
	p := &llmmock.Provider{
		Unconfigured: true,
		CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
			t.Fatal("adapter must not be invoked without a credential")
			return llm.CompletionResponse{}, nil
		},
	}
	router := tutor.NewRouter(newRegistry(p, llm.ModelRoute{Model: "m"}), nil, nil)

	_, err := router.Route(context.Background(), tutor.Request{Problem: "q"})
	var cfgErr *llm.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestRouteFallbackRetriesOnceAndReturnsFallbackResult(t *testing.T) {
	var models []string
	p := &llmmock.Provider{
		CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
			models = append(models, req.Model)
			if req.Model == "primary" {
				return llm.CompletionResponse{}, &llm.UpstreamError{Provider: "mock", Model: "primary", StatusCode: 500, Body: "boom"}
			}
			return llm.CompletionResponse{Text: "recovered", Model: req.Model}, nil
		},
	}
	router := tutor.NewRouter(newRegistry(p, llm.ModelRoute{Model: "primary", Fallback: "secondary"}), nil, nil)

	result, err := router.Route(context.Background(), tutor.Request{Problem: "q"})
	require.NoError(t, err)
	require.Equal(t, "recovered", result.Response)
	require.Equal(t, []string{"primary", "secondary"}, models)
}

func TestRouteFallbackFailurePropagatesLastError(t *testing.T) {
	var calls int
	p := &llmmock.Provider{
		CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
			calls++
			return llm.CompletionResponse{}, &llm.UpstreamError{Provider: "mock", Model: req.Model, StatusCode: 502, Body: "down"}
		},
	}
	router := tutor.NewRouter(newRegistry(p, llm.ModelRoute{Model: "primary", Fallback: "secondary"}), nil, nil)

	_, err := router.Route(context.Background(), tutor.Request{Problem: "q"})
	var upstream *llm.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, "secondary", upstream.Model)
	require.Equal(t, 2, calls, "fallback is attempted at most once")
}

func TestRouteNoFallbackFailsImmediately(t *testing.T) {
	var calls int
	p := &llmmock.Provider{
		CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
			calls++
			return llm.CompletionResponse{}, &llm.UpstreamError{Provider: "mock", Model: req.Model, StatusCode: 500, Body: "boom"}
		},
	}
	router := tutor.NewRouter(newRegistry(p, llm.ModelRoute{Model: "only"}), nil, nil)

	_, err := router.Route(context.Background(), tutor.Request{Problem: "q"})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRouteEmptyTextIsTerminal(t *testing.T) {
	var calls int
	p := &llmmock.Provider{
		CompleteFn: func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
			calls++
			return llm.CompletionResponse{Text: ""}, nil
		},
	}
	router := tutor.NewRouter(newRegistry(p, llm.ModelRoute{Model: "m", Fallback: "f"}), nil, nil)

	_, err := router.Route(context.Background(), tutor.Request{Problem: "q"})
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
	require.Equal(t, 1, calls, "empty result is not retried")
}

// Package configbuilder wires the model registry from application config.
package configbuilder

import (
	"fmt"
	"os"

	"github.com/akshay-abraham/lyra/internal/config"
	"github.com/akshay-abraham/lyra/internal/llm"
	llmdeepseek "github.com/akshay-abraham/lyra/internal/llm/providers/deepseek"
	llmgemini "github.com/akshay-abraham/lyra/internal/llm/providers/gemini"
	llmopenai "github.com/akshay-abraham/lyra/internal/llm/providers/openai"
)

// keyEnvVars maps a provider type to the conventional environment variable
// consulted when the config carries no api_key.
var keyEnvVars = map[string]string{
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
	"gemini":   "GEMINI_API_KEY",
}

// BuildRegistryFromConfig constructs a registry and providers from config.
func BuildRegistryFromConfig(cfg *config.Config) (*llm.Registry, error) {
	reg := llm.NewRegistry()

	for name, pCfg := range cfg.Providers {
		p, err := buildProvider(name, pCfg)
		if err != nil {
			return nil, err
		}
		reg.RegisterProvider(name, p)
	}

	for name, mCfg := range cfg.Models {
		reg.RegisterModel(name, llm.ModelRoute{
			Provider:    mCfg.Provider,
			Model:       mCfg.Model,
			Fallback:    mCfg.FallbackModel,
			Temperature: mCfg.Temperature,
		}, mCfg.Default)
	}

	if _, _, err := reg.Resolve(""); err != nil {
		return nil, err
	}

	return reg, nil
}

func buildProvider(name string, cfg config.ProviderConfig) (llm.Provider, error) {
	key := ResolveAPIKey(cfg)
	switch cfg.Type {
	case "openai":
		return llmopenai.NewProvider(name, cfg.BaseURL, key, cfg.Timeout), nil
	case "deepseek":
		return llmdeepseek.NewProvider(name, cfg.BaseURL, key, cfg.Timeout), nil
	case "gemini":
		return llmgemini.NewProvider(name, cfg.BaseURL, key, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q for provider %s", cfg.Type, name)
	}
}

// ResolveAPIKey prefers the explicitly configured key, then the provider's
// conventional environment variable.
func ResolveAPIKey(cfg config.ProviderConfig) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	if env, ok := keyEnvVars[cfg.Type]; ok {
		return os.Getenv(env)
	}
	return ""
}

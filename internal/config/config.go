package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version   string                    `mapstructure:"version"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`
	Store     StoreConfig               `mapstructure:"store"`
	Chat      ChatConfig                `mapstructure:"chat"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Server    ServerConfig              `mapstructure:"server"`
}

// ProviderConfig represents an upstream LLM provider family such as OpenAI,
// a DeepSeek-compatible chat-completions gateway, or Gemini.
type ProviderConfig struct {
	Type    string        `mapstructure:"type"`     // openai, deepseek, gemini
	BaseURL string        `mapstructure:"base_url"` // API base URL
	APIKey  string        `mapstructure:"api_key"`  // credential; falls back to provider env var
	Timeout time.Duration `mapstructure:"timeout"`  // request timeout
}

// ModelConfig binds a logical model id to a provider entry and model parameters.
type ModelConfig struct {
	Provider      string  `mapstructure:"provider"`
	Model         string  `mapstructure:"model"`
	FallbackModel string  `mapstructure:"fallback_model"`
	Temperature   float64 `mapstructure:"temperature"`
	Default       bool    `mapstructure:"default"`
}

// StoreConfig describes the transcript store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ChatConfig describes orchestrator behaviour.
type ChatConfig struct {
	MaxTitleLength int `mapstructure:"max_title_length"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: LYRA_, dots replaced with
// underscores). A missing config file is not an error when no path was given: the
// built-in defaults describe a working three-provider setup whose credentials come
// from the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LYRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates a working default setup: three provider families and one
// default Gemini model with a declared fallback.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("providers.openai.type", "openai")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com")
	v.SetDefault("providers.deepseek.type", "deepseek")
	v.SetDefault("providers.deepseek.base_url", "https://api.deepseek.com")
	v.SetDefault("providers.gemini.type", "gemini")
	v.SetDefault("providers.gemini.base_url", "https://generativelanguage.googleapis.com")

	v.SetDefault("models.gemini-flash.provider", "gemini")
	v.SetDefault("models.gemini-flash.model", "gemini-2.0-flash")
	v.SetDefault("models.gemini-flash.fallback_model", "gemini-1.5-flash")
	v.SetDefault("models.gemini-flash.temperature", 0.7)
	v.SetDefault("models.gemini-flash.default", true)
	v.SetDefault("models.gpt-4o-mini.provider", "openai")
	v.SetDefault("models.gpt-4o-mini.model", "gpt-4o-mini")
	v.SetDefault("models.gpt-4o-mini.temperature", 0.7)
	v.SetDefault("models.deepseek-chat.provider", "deepseek")
	v.SetDefault("models.deepseek-chat.model", "deepseek-chat")
	v.SetDefault("models.deepseek-chat.temperature", 0.7)

	v.SetDefault("store.path", "./data/lyra.db")

	v.SetDefault("chat.max_title_length", 40)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	for name, p := range c.Providers {
		switch p.Type {
		case "openai", "deepseek", "gemini":
		case "":
			return fmt.Errorf("provider %q must define type", name)
		default:
			return fmt.Errorf("provider %q has unknown type %q", name, p.Type)
		}
	}

	var defaults int
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		p, ok := c.Providers[m.Provider]
		if !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if m.Model == "" {
			return fmt.Errorf("model %q must define an upstream model name", name)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		// Fallback retry is a property of the Gemini family only; declaring one
		// elsewhere would silently change cost/latency characteristics.
		if m.FallbackModel != "" && p.Type != "gemini" {
			return fmt.Errorf("model %q declares fallback_model but provider %q is not gemini", name, m.Provider)
		}

		if m.Default {
			defaults++
		}
	}

	if defaults != 1 {
		return fmt.Errorf("exactly one model must be marked as default, found %d", defaults)
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must be set")
	}

	if c.Chat.MaxTitleLength <= 0 {
		return errors.New("chat.max_title_length must be > 0")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	return nil
}

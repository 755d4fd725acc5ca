// Package config loads runtime configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLIs need to assemble a workflow.
type Config struct {
	// MockSentiment selects the rule-based classifier instead of an LLM.
	MockSentiment bool

	// MockUserResponses runs conversations against a scripted customer
	// instead of reading stdin.
	MockUserResponses bool

	// LLMProvider is "openai" or "anthropic". Ignored when MockSentiment.
	LLMProvider string

	// LLMModel overrides the provider's default model.
	LLMModel string

	OpenAIAPIKey    string
	AnthropicAPIKey string

	// StoreDriver is "memory", "sqlite", or "mysql".
	StoreDriver string

	// StoreDSN is the database path or DSN for sqlite and mysql drivers.
	StoreDSN string

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string

	TraceAPIURL string
	TraceAPIKey string

	// MaxSentimentAttempts caps clarification rounds.
	MaxSentimentAttempts int

	// NodeTimeout bounds a single node execution.
	NodeTimeout time.Duration

	// LogJSON switches log output to JSON.
	LogJSON bool
}

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
)

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	// Missing .env is fine, the environment alone is a valid source.
	_ = godotenv.Load()

	cfg := &Config{
		MockSentiment:     getBool("MOCK_SENTIMENT_ANALYSIS", false),
		MockUserResponses: getBool("MOCK_USER_RESPONSES", false),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:          getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		StoreDSN:          getEnv("STORE_DSN", ""),
		MetricsAddr:       getEnv("METRICS_ADDR", ""),
		TraceAPIURL:       getEnv("TRACE_API_URL", ""),
		TraceAPIKey:       getEnv("TRACE_API_KEY", ""),
		LogJSON:           getBool("LOG_JSON", false),
	}

	attempts, err := getInt("MAX_SENTIMENT_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	cfg.MaxSentimentAttempts = attempts

	timeout, err := getDuration("NODE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.NodeTimeout = timeout

	if cfg.LLMModel == "" {
		switch cfg.LLMProvider {
		case "anthropic":
			cfg.LLMModel = DefaultAnthropicModel
		default:
			cfg.LLMModel = DefaultOpenAIModel
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.MockSentiment {
		switch c.LLMProvider {
		case "openai":
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required when MOCK_SENTIMENT_ANALYSIS is false")
			}
		case "anthropic":
			if c.AnthropicAPIKey == "" {
				return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER is anthropic")
			}
		default:
			return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider)
		}
	}

	switch c.StoreDriver {
	case "memory":
	case "sqlite", "mysql":
		if c.StoreDSN == "" {
			return fmt.Errorf("STORE_DSN is required when STORE_DRIVER is %s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER: %s", c.StoreDriver)
	}

	if c.MaxSentimentAttempts <= 0 {
		return fmt.Errorf("MAX_SENTIMENT_ATTEMPTS must be positive")
	}
	return nil
}

// getEnv treats empty values as unset so a cleared variable falls back
// to the default.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getBool accepts the Python-style True/False spellings alongside the
// usual true/1.
func getBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no", "":
		return false
	default:
		return fallback
	}
}

func getInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return d, nil
}

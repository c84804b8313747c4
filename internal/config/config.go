package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/liamcoop/formulas/llm"
	"github.com/liamcoop/formulas/llm/gemini"
	"github.com/liamcoop/formulas/llm/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents the complete service configuration
type Config struct {
	Server ServerConfig
	LLM    LLMConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// LLMConfig selects and parameterises the generation provider
type LLMConfig struct {
	Provider      string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	Settings      llm.Settings
}

// Load reads configuration from the environment. A missing credential is
// not an error; malformed numbers and unknown providers are.
func Load() (*Config, error) {
	timeout, err := getEnvDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load LLM configuration: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "8080"),
			RequestTimeout: timeout,
			AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		LLM: *llmCfg,
	}, nil
}

func loadLLMConfig() (*LLMConfig, error) {
	provider := strings.ToLower(strings.TrimSpace(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI)))
	if provider != ProviderOpenAI && provider != ProviderGemini {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, provider)
	}

	defaults := llm.DefaultSettings()
	var s llm.Settings
	var err error

	if s.Temperature, err = getEnvFloatOrDefault("LLM_TEMPERATURE", defaults.Temperature); err != nil {
		return nil, err
	}
	if s.TopP, err = getEnvFloatOrDefault("LLM_TOP_P", defaults.TopP); err != nil {
		return nil, err
	}
	if s.FrequencyPenalty, err = getEnvFloatOrDefault("LLM_FREQUENCY_PENALTY", defaults.FrequencyPenalty); err != nil {
		return nil, err
	}
	if s.PresencePenalty, err = getEnvFloatOrDefault("LLM_PRESENCE_PENALTY", defaults.PresencePenalty); err != nil {
		return nil, err
	}
	if s.MaxTokens, err = getEnvIntOrDefault("LLM_MAX_TOKENS", defaults.MaxTokens); err != nil {
		return nil, err
	}
	if s.Timeout, err = getEnvDurationOrDefault("LLM_TIMEOUT", defaults.Timeout); err != nil {
		return nil, err
	}

	return &LLMConfig{
		Provider:      provider,
		OpenAIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", openai.DefaultModel),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", openai.DefaultBaseURL),
		GeminiKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", gemini.DefaultModel),
		Settings:      s,
	}, nil
}

// Configured reports whether the selected provider has a credential.
func (c LLMConfig) Configured() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiKey != ""
	default:
		return c.OpenAIKey != ""
	}
}

// Model returns the model name of the selected provider.
func (c LLMConfig) Model() string {
	if c.Provider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, value)
	}
	return f, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

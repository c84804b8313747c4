// Package provider builds the configured llm.Generator.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/liamcoop/formulas/internal/config"
	"github.com/liamcoop/formulas/llm"
	"github.com/liamcoop/formulas/llm/gemini"
	"github.com/liamcoop/formulas/llm/openai"
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("llm credential not set")

// New returns a generator for cfg.Provider and a release func for any
// client resources. The release func is never nil.
func New(ctx context.Context, cfg config.LLMConfig) (llm.Generator, func() error, error) {
	noop := func() error { return nil }

	if !cfg.Configured() {
		return nil, noop, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingCredential)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.Settings), noop, nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.Settings)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

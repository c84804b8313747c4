// Package llm defines the generation collaborator the formula pipeline
// talks to. Implementations live in the openai and gemini subpackages.
package llm

import (
	"context"
	"time"

	"github.com/liamcoop/formulas/prompt"
)

// Generator turns an ordered message sequence into one block of text.
// Implementations make a single attempt per call and must honour ctx.
type Generator interface {
	Generate(ctx context.Context, messages []prompt.Message) (string, error)
	Model() string
}

// Settings are the sampling parameters sent with every request.
type Settings struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	MaxTokens        int
	Timeout          time.Duration
}

// DefaultSettings returns low-temperature settings suited to producing a
// single deterministic expression.
func DefaultSettings() Settings {
	return Settings{
		Temperature:      0.1,
		TopP:             0.95,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		MaxTokens:        500,
		Timeout:          60 * time.Second,
	}
}

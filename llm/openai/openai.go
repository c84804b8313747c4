package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/liamcoop/formulas/llm"
	"github.com/liamcoop/formulas/prompt"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Client calls the OpenAI chat completions endpoint.
type Client struct {
	apiKey   string
	model    string
	baseURL  string
	settings llm.Settings
	httpc    *http.Client
}

// New creates a client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, model, baseURL string, settings llm.Settings) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		model:    strings.TrimSpace(model),
		baseURL:  strings.TrimRight(baseURL, "/"),
		settings: settings,
		httpc:    &http.Client{Timeout: settings.Timeout},
	}
}

func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends messages as one chat completion and returns the first
// choice's content with surrounding whitespace removed. Empty content is
// returned as "" without error.
func (c *Client) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("OPENAI_API_KEY is empty")
	}

	body := chatRequest{
		Model:            c.model,
		Messages:         make([]chatMessage, 0, len(messages)),
		Temperature:      c.settings.Temperature,
		TopP:             c.settings.TopP,
		FrequencyPenalty: c.settings.FrequencyPenalty,
		PresencePenalty:  c.settings.PresencePenalty,
		MaxTokens:        c.settings.MaxTokens,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
			return "", fmt.Errorf("openai %d: %s", resp.StatusCode, env.Error.Message)
		}
		return "", fmt.Errorf("openai %d: %s", resp.StatusCode, truncate(raw, 512))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in response: %s", truncate(raw, 512))
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// truncate cuts b to at most n bytes without splitting a UTF-8 sequence.
func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

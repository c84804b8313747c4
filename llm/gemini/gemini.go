package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/liamcoop/formulas/llm"
	"github.com/liamcoop/formulas/prompt"
)

const DefaultModel = "gemini-2.5-flash"

// Client generates text with a Gemini model.
type Client struct {
	cl       *genai.Client
	model    string
	settings llm.Settings
}

func New(ctx context.Context, apiKey, model string, settings llm.Settings) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{cl: cl, model: strings.TrimSpace(model), settings: settings}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Close() error {
	return c.cl.Close()
}

// Generate replays the worked examples as chat history and sends the final
// user message. Frequency and presence penalties are not forwarded.
func (c *Client) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	system, history, last, err := splitMessages(messages)
	if err != nil {
		return "", err
	}

	if c.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.Timeout)
		defer cancel()
	}

	m := c.cl.GenerativeModel(c.model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.SetTemperature(float32(c.settings.Temperature))
	m.SetTopP(float32(c.settings.TopP))
	if c.settings.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(c.settings.MaxTokens))
	}
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	return replyText(resp), nil
}

// replyText is the trimmed first text part. A reply without text is "",
// leaving the caller to judge the empty candidate.
func replyText(resp *genai.GenerateContentResponse) string {
	return strings.TrimSpace(firstText(resp))
}

// splitMessages maps an assembled conversation onto Gemini's shape: system
// messages become the system instruction, assistant turns take the "model"
// role, and the trailing user message is returned separately.
func splitMessages(messages []prompt.Message) (string, []*genai.Content, string, error) {
	if len(messages) == 0 {
		return "", nil, "", errors.New("gemini: no messages")
	}
	tail := messages[len(messages)-1]
	if tail.Role != prompt.RoleUser {
		return "", nil, "", fmt.Errorf("gemini: last message must be from user, got %q", tail.Role)
	}

	var system []string
	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		switch msg.Role {
		case prompt.RoleSystem:
			system = append(system, msg.Content)
		case prompt.RoleUser:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		case prompt.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			return "", nil, "", fmt.Errorf("gemini: unsupported role %q", msg.Role)
		}
	}

	return strings.Join(system, "\n\n"), history, tail.Content, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

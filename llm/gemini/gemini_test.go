package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/formulas/llm"
	"github.com/liamcoop/formulas/prompt"
)

// TestSplitMessages verifies the assembled conversation maps onto system instruction, history and final turn
func TestSplitMessages(t *testing.T) {
	msgs := prompt.Assemble("Calculate monthly deferred payment")

	system, history, last, err := splitMessages(msgs)
	require.NoError(t, err)

	assert.Equal(t, prompt.SystemInstructions(), system)
	assert.Equal(t, "Calculate monthly deferred payment", last)
	require.Len(t, history, 2*len(prompt.Examples()))

	for i, ex := range prompt.Examples() {
		user, model := history[2*i], history[2*i+1]
		assert.Equal(t, "user", user.Role)
		assert.Equal(t, "model", model.Role)
		assert.Equal(t, genai.Text(ex.Input), user.Parts[0])
		assert.Equal(t, genai.Text(ex.Output), model.Parts[0])
	}
}

// TestSplitMessages_Errors verifies malformed conversations are refused
func TestSplitMessages_Errors(t *testing.T) {
	_, _, _, err := splitMessages(nil)
	assert.Error(t, err)

	_, _, _, err = splitMessages([]prompt.Message{
		{Role: prompt.RoleUser, Content: "hi"},
		{Role: prompt.RoleAssistant, Content: "totalAmount"},
	})
	assert.ErrorContains(t, err, "last message must be from user")

	_, _, _, err = splitMessages([]prompt.Message{
		{Role: "tool", Content: "x"},
		{Role: prompt.RoleUser, Content: "hi"},
	})
	assert.ErrorContains(t, err, "unsupported role")
}

// TestFirstText verifies the first text part is returned and empty responses yield ""
func TestFirstText(t *testing.T) {
	assert.Equal(t, "", firstText(nil))
	assert.Equal(t, "", firstText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("totalAmount / term")}}},
		},
	}
	assert.Equal(t, "totalAmount / term", firstText(resp))
}

// TestReplyText verifies replies are trimmed and a reply without text is empty rather than an error
func TestReplyText(t *testing.T) {
	assert.Equal(t, "", replyText(nil))
	assert.Equal(t, "", replyText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  \n")}}}},
	}))
	assert.Equal(t, "totalAmount / term", replyText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(" totalAmount / term\n")}}}},
	}))
}

// TestNew_MissingKey verifies no client is created without a credential
func TestNew_MissingKey(t *testing.T) {
	c, err := New(context.Background(), " ", "", llm.DefaultSettings())
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

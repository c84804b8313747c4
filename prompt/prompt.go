// Package prompt builds the message sequence sent to the generation
// collaborator: fixed system instructions, a few-shot library of worked
// examples and the caller's request.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// RefusalSentence is the exact reply the generator is instructed to give
// for requests outside amortization formulas.
const RefusalSentence = "I can only help with amortization formula generation. Please ask about commission calculations, deferred payments, cap percentages, payment frequencies, or payroll classifications."

// RefusalMarker is the leading clause of RefusalSentence. Its presence in
// generated text marks a scope rejection.
const RefusalMarker = "I can only help with amortization formula generation"

const refusalPlaceholder = "{{REFUSAL}}"

//go:embed system.txt
var systemTemplate string

//go:embed examples.yaml
var examplesYAML []byte

// Role tags a message for the generation collaborator.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// WorkedExample is an immutable request/formula pair shown to the generator.
type WorkedExample struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

var (
	loadOnce     sync.Once
	instructions string
	examples     []WorkedExample
)

func load() {
	loadOnce.Do(func() {
		instructions = strings.TrimSpace(strings.ReplaceAll(systemTemplate, refusalPlaceholder, RefusalSentence))

		var parsed []WorkedExample
		if err := yaml.Unmarshal(examplesYAML, &parsed); err != nil {
			panic(fmt.Sprintf("prompt: embedded examples are invalid: %v", err))
		}
		for i, ex := range parsed {
			if strings.TrimSpace(ex.Input) == "" || strings.TrimSpace(ex.Output) == "" {
				panic(fmt.Sprintf("prompt: embedded example %d is incomplete", i))
			}
		}
		examples = parsed
	})
}

// SystemInstructions returns the fixed instruction text of the system message.
func SystemInstructions() string {
	load()
	return instructions
}

// Examples returns the few-shot library in presentation order.
func Examples() []WorkedExample {
	load()
	return append([]WorkedExample(nil), examples...)
}

// Assemble returns the ordered messages for one generation request: the
// system instructions, each worked example as a user/assistant pair, and
// a final user turn carrying userPrompt verbatim.
func Assemble(userPrompt string) []Message {
	load()

	msgs := make([]Message, 0, 2+2*len(examples))
	msgs = append(msgs, Message{Role: RoleSystem, Content: instructions})
	for _, ex := range examples {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: ex.Input},
			Message{Role: RoleAssistant, Content: ex.Output},
		)
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: userPrompt})
	return msgs
}

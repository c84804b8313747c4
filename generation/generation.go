// Package generation runs one formula request end to end: assemble the
// prompt, call the generator once, normalize the reply, check scope and
// validate the candidate.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/formulas/formula"
	"github.com/liamcoop/formulas/internal/logger"
	"github.com/liamcoop/formulas/llm"
	"github.com/liamcoop/formulas/policy"
	"github.com/liamcoop/formulas/prompt"
)

// OutOfScope is the error text of a scope rejection.
const OutOfScope = "Out of scope request"

// slowThreshold marks generator calls worth a warning.
const slowThreshold = 10 * time.Second

var (
	ErrEmptyPrompt   = errors.New("prompt cannot be empty")
	ErrNotConfigured = errors.New("llm not configured")
)

// UpstreamError wraps a failed generator call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generator call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// State is a step of the request lifecycle.
type State string

const (
	StateReceived           State = "received"
	StateAssembling         State = "assembling"
	StateAwaitingGeneration State = "awaiting_generation"
	StateNormalizing        State = "normalizing"
	StateScopeCheck         State = "scope_check"
	StateValidating         State = "validating"
	StateDone               State = "done"
	StateConfigError        State = "config_error"
	StateUpstreamError      State = "upstream_error"
)

// Outcome is the terminal classification of a completed request.
type Outcome string

const (
	OutcomeValid            Outcome = Outcome(logger.OutcomeValid)
	OutcomeScopeRejected    Outcome = Outcome(logger.OutcomeScopeRejected)
	OutcomeValidationFailed Outcome = Outcome(logger.OutcomeValidationFailed)
)

// Request is one caller request. Context is carried but never inspected.
type Request struct {
	Prompt  string         `json:"prompt"`
	Context map[string]any `json:"context,omitempty"`
}

// Result is the response object of a completed request. IsValid implies
// Error is nil; an invalid result always carries a non-empty Error.
type Result struct {
	Formula     string  `json:"formula"`
	Explanation string  `json:"explanation"`
	IsValid     bool    `json:"isValid"`
	Error       *string `json:"error"`
	Outcome     Outcome `json:"-"`
}

// Service orchestrates generation requests. It is safe for concurrent use.
type Service struct {
	gen       llm.Generator
	validator *formula.Validator
}

// New creates a Service. gen may be nil, in which case every non-blank
// request fails with ErrNotConfigured.
func New(gen llm.Generator, catalog *policy.Catalog) *Service {
	return &Service{
		gen:       gen,
		validator: formula.NewValidator(catalog),
	}
}

// Configured reports whether a generator is attached.
func (s *Service) Configured() bool {
	return s.gen != nil
}

// Model returns the generator's model name, or "" when unconfigured.
func (s *Service) Model() string {
	if s.gen == nil {
		return ""
	}
	return s.gen.Model()
}

// Generate runs req through the pipeline. Scope rejections and validation
// failures are results, not errors. Errors are ErrEmptyPrompt,
// ErrNotConfigured or *UpstreamError.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	log := logger.Logger.With("request_id", uuid.NewString())
	state := StateReceived
	step := func(next State) {
		log.Log(ctx, logger.LevelTrace, "state transition", "from", state, "to", next)
		state = next
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}
	if s.gen == nil {
		step(StateConfigError)
		return Result{}, ErrNotConfigured
	}

	step(StateAssembling)
	messages := prompt.Assemble(req.Prompt)

	step(StateAwaitingGeneration)
	start := time.Now()
	raw, err := s.gen.Generate(ctx, messages)
	elapsed := time.Since(start)
	if elapsed > slowThreshold {
		logger.WarnSlowUpstream()
	}
	if err != nil {
		step(StateUpstreamError)
		logger.RecordOutcome(logger.OutcomeUpstreamFailed)
		log.Error("generator call failed", "model", s.gen.Model(), "elapsed", elapsed, "error", err)
		return Result{}, &UpstreamError{Err: err}
	}

	step(StateNormalizing)
	candidate := formula.Normalize(raw)

	step(StateScopeCheck)
	var res Result
	if isRefusal(raw, candidate) {
		res = Result{
			Explanation: raw,
			Error:       ptr(OutOfScope),
			Outcome:     OutcomeScopeRejected,
		}
	} else {
		step(StateValidating)
		res = s.validate(req.Prompt, candidate)
	}

	step(StateDone)
	logger.RecordOutcome(logger.Outcome(res.Outcome))
	log.Info("generation complete",
		"model", s.gen.Model(),
		"outcome", res.Outcome,
		"elapsed", elapsed,
		"formula", res.Formula,
	)
	return res, nil
}

func (s *Service) validate(userPrompt, candidate string) Result {
	if err := s.validator.Validate(candidate); err != nil {
		msg := err.Error()
		return Result{
			Formula:     candidate,
			Explanation: "Generated formula failed validation: " + msg,
			Error:       &msg,
			Outcome:     OutcomeValidationFailed,
		}
	}
	return Result{
		Formula:     candidate,
		Explanation: fmt.Sprintf("Generated formula for: '%s'", userPrompt),
		IsValid:     true,
		Outcome:     OutcomeValid,
	}
}

// isRefusal checks both the raw text and the candidate so a refusal
// wrapped in a label or fence is still caught.
func isRefusal(raw, candidate string) bool {
	return strings.Contains(raw, prompt.RefusalMarker) || strings.Contains(candidate, prompt.RefusalMarker)
}

func ptr(s string) *string { return &s }

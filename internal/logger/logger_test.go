package logger

import (
	"log/slog"
	"testing"
)

// TestParseLevel verifies level names map to slog levels and unknown names fall back to INFO
func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"Info":    LevelInfo,
		"warn":    LevelWarning,
		"WARNING": LevelWarning,
		" error ": LevelError,
		"fatal":   LevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	got, err := ParseLevel("verbose")
	if err == nil {
		t.Error("Expected error for unknown level")
	}
	if got != LevelInfo {
		t.Errorf("Expected INFO fallback, got %v", got)
	}
}

// TestSetLevel verifies the program level can be changed at runtime
func TestSetLevel(t *testing.T) {
	prev := GetLevel()
	defer SetLevel(prev)

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("Expected ERROR, got %v", GetLevel())
	}
}

// TestRecordOutcome verifies each outcome bumps only its own counter
func TestRecordOutcome(t *testing.T) {
	before := Snapshot()

	RecordOutcome(OutcomeValid)
	RecordOutcome(OutcomeValid)
	RecordOutcome(OutcomeScopeRejected)
	RecordOutcome(OutcomeValidationFailed)
	RecordOutcome(OutcomeUpstreamFailed)
	RecordOutcome(Outcome("unknown"))

	after := Snapshot()
	if d := after.Valid - before.Valid; d != 2 {
		t.Errorf("valid delta = %d, want 2", d)
	}
	if d := after.ScopeRejected - before.ScopeRejected; d != 1 {
		t.Errorf("scope rejected delta = %d, want 1", d)
	}
	if d := after.ValidationFailed - before.ValidationFailed; d != 1 {
		t.Errorf("validation failed delta = %d, want 1", d)
	}
	if d := after.UpstreamFailed - before.UpstreamFailed; d != 1 {
		t.Errorf("upstream failed delta = %d, want 1", d)
	}
}

// TestHTTPCounters verifies status helpers track class and specific codes
func TestHTTPCounters(t *testing.T) {
	before := Snapshot()

	WarnHttp4xx(400)
	WarnHttp4xx(405)
	ErrorHttp5xx(503)
	ErrorHttp5xx(500)

	after := Snapshot()
	if d := after.HTTP4xx - before.HTTP4xx; d != 2 {
		t.Errorf("4xx delta = %d, want 2", d)
	}
	if d := after.HTTP400 - before.HTTP400; d != 1 {
		t.Errorf("400 delta = %d, want 1", d)
	}
	if d := after.HTTP5xx - before.HTTP5xx; d != 2 {
		t.Errorf("5xx delta = %d, want 2", d)
	}
	if d := after.HTTP503 - before.HTTP503; d != 1 {
		t.Errorf("503 delta = %d, want 1", d)
	}
	if d := after.Warnings - before.Warnings; d != 2 {
		t.Errorf("warnings delta = %d, want 2", d)
	}
	if d := after.Errors - before.Errors; d != 2 {
		t.Errorf("errors delta = %d, want 2", d)
	}
}

// TestShutdownWithoutOTEL verifies Shutdown is a no-op in JSON mode
func TestShutdownWithoutOTEL(t *testing.T) {
	if shutdownFunc != nil {
		t.Skip("OTEL enabled in environment")
	}
	if err := Shutdown(t.Context()); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
	LevelFatal   = slog.Level(12)
)

const defaultServiceName = "formula-generation-service"

var (
	Logger          *slog.Logger
	errorSampleRate int32 = 100 // 1 out of every N warnings/errors is written (ERROR_SAMPLE_RATE)
	programLevel          = new(slog.LevelVar)
	shutdownFunc    func(context.Context) error
)

// Counters are incremented regardless of sampling.
var (
	TotalErrors    atomic.Int64
	TotalWarnings  atomic.Int64
	Total5xxErrors atomic.Int64
	Total4xxErrors atomic.Int64
	Total400Errors atomic.Int64
	Total503Errors atomic.Int64

	GeneratedValid    atomic.Int64
	ScopeRejected     atomic.Int64
	ValidationFailed  atomic.Int64
	UpstreamFailed    atomic.Int64
	UpstreamSlowCalls atomic.Int64
)

func init() {
	programLevel.Set(slog.LevelInfo)

	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "INFO"
	}
	level, err := ParseLevel(levelStr)
	if err != nil {
		level = slog.LevelInfo
	}
	programLevel.Set(level)

	// ERROR_SAMPLE_RATE=1 logs every warning and error
	if sampleStr := os.Getenv("ERROR_SAMPLE_RATE"); sampleStr != "" {
		if rate, err := strconv.Atoi(sampleStr); err == nil && rate > 0 {
			atomic.StoreInt32(&errorSampleRate, int32(rate))
		}
	}

	if strings.ToLower(os.Getenv("OTEL_ENABLED")) != "true" {
		setupJSONLogging()
		return
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	shutdown, err := setupOTELLogging(context.Background(), serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup OTEL logging, falling back to JSON: %v\n", err)
		setupJSONLogging()
		return
	}
	shutdownFunc = shutdown
	fmt.Fprintf(os.Stderr, "OpenTelemetry logging enabled for service: %s (sampling: 1/%d)\n", serviceName, atomic.LoadInt32(&errorSampleRate))
}

func setupJSONLogging() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: programLevel})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func setupOTELLogging(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	otelHandler := otelslog.NewHandler(
		serviceName,
		otelslog.WithLoggerProvider(loggerProvider),
	)

	Logger = slog.New(&levelHandler{level: programLevel, handler: otelHandler})
	slog.SetDefault(Logger)

	return loggerProvider.Shutdown, nil
}

// levelHandler wraps a handler to filter by level
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// Shutdown flushes the OTEL provider. It is a no-op in JSON mode.
func Shutdown(ctx context.Context) error {
	if shutdownFunc != nil {
		return shutdownFunc(ctx)
	}
	return nil
}

func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

func GetLevel() slog.Level {
	return programLevel.Level()
}

// ParseLevel converts a level name to slog.Level
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s (defaulting to INFO)", levelStr)
	}
}

func shouldSample() bool {
	rate := atomic.LoadInt32(&errorSampleRate)
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

// ============================================================================
// Logging Functions
// ============================================================================

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn increments the warning counter and writes a sampled log line.
func Warn(msg string, args ...any) {
	TotalWarnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error increments the error counter and writes a sampled log line.
func Error(msg string, args ...any) {
	TotalErrors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// Fatal logs, flushes OTEL and exits.
func Fatal(msg string, args ...any) {
	Logger.Log(context.Background(), LevelFatal, msg, args...)
	if shutdownFunc != nil {
		_ = shutdownFunc(context.Background())
	}
	os.Exit(1)
}

// ============================================================================
// HTTP-Specific Helpers
// ============================================================================

func ErrorHttp5xx(status int) {
	Total5xxErrors.Add(1)
	TotalErrors.Add(1)
	if status == 503 {
		Total503Errors.Add(1)
	}
}

func WarnHttp4xx(status int) {
	Total4xxErrors.Add(1)
	TotalWarnings.Add(1)
	if status == 400 {
		Total400Errors.Add(1)
	}
}

// ============================================================================
// Generation Outcomes
// ============================================================================

// Outcome labels the end state of one generation request.
type Outcome string

const (
	OutcomeValid            Outcome = "valid"
	OutcomeScopeRejected    Outcome = "scope_rejected"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeUpstreamFailed   Outcome = "upstream_failed"
)

// RecordOutcome bumps the counter for o. Unknown outcomes are ignored.
func RecordOutcome(o Outcome) {
	switch o {
	case OutcomeValid:
		GeneratedValid.Add(1)
	case OutcomeScopeRejected:
		ScopeRejected.Add(1)
	case OutcomeValidationFailed:
		ValidationFailed.Add(1)
	case OutcomeUpstreamFailed:
		UpstreamFailed.Add(1)
	}
}

// WarnSlowUpstream counts a generation call that exceeded its latency budget.
func WarnSlowUpstream() {
	UpstreamSlowCalls.Add(1)
	TotalWarnings.Add(1)
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Errors           int64 `json:"errors"`
	Warnings         int64 `json:"warnings"`
	HTTP4xx          int64 `json:"http_4xx"`
	HTTP400          int64 `json:"http_400"`
	HTTP5xx          int64 `json:"http_5xx"`
	HTTP503          int64 `json:"http_503"`
	Valid            int64 `json:"valid"`
	ScopeRejected    int64 `json:"scope_rejected"`
	ValidationFailed int64 `json:"validation_failed"`
	UpstreamFailed   int64 `json:"upstream_failed"`
	SlowUpstream     int64 `json:"slow_upstream"`
}

func Snapshot() Stats {
	return Stats{
		Errors:           TotalErrors.Load(),
		Warnings:         TotalWarnings.Load(),
		HTTP4xx:          Total4xxErrors.Load(),
		HTTP400:          Total400Errors.Load(),
		HTTP5xx:          Total5xxErrors.Load(),
		HTTP503:          Total503Errors.Load(),
		Valid:            GeneratedValid.Load(),
		ScopeRejected:    ScopeRejected.Load(),
		ValidationFailed: ValidationFailed.Load(),
		UpstreamFailed:   UpstreamFailed.Load(),
		SlowUpstream:     UpstreamSlowCalls.Load(),
	}
}

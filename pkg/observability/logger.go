// Package observability provides structured logging, metrics collection,
// tracing and health reporting for the prioritization services.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is the textual level accepted from configuration.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr when nil.
	Output    io.Writer
	AddSource bool
	// ServiceName and ServiceVersion are stamped on every record.
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig is the local/CLI configuration: text on stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "prioritiai",
		ServiceVersion: "dev",
	}
}

// ProductionLogConfig emits JSON with source locations on stdout.
func ProductionLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         os.Stdout,
		AddSource:      true,
		ServiceName:    "prioritiai",
		ServiceVersion: "unknown",
	}
}

// NewLogger builds a slog.Logger whose records carry the service identity and
// any correlation or request id found on the logging context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slog(), AddSource: cfg.AddSource}

	var base slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == LogFormatJSON {
		base = slog.NewJSONHandler(out, opts)
	}

	var static []slog.Attr
	if cfg.ServiceName != "" {
		static = append(static, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		static = append(static, slog.String("version", cfg.ServiceVersion))
	}
	if len(static) > 0 {
		base = base.WithAttrs(static)
	}
	return slog.New(contextHandler{next: base})
}

func (l LogLevel) slog() slog.Level {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn, "warning":
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler copies ids stored by WithCorrelationID and WithRequestID onto
// each record.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}

// AuditLogger returns a logger for privacy audit records. Callers must only
// attach category names and request IDs, never matched content.
func AuditLogger(logger *slog.Logger) *slog.Logger {
	return logger.With(slog.String("log_type", "audit"))
}

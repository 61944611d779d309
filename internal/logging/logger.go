package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request correlation IDs
	RequestIDKey contextKey = "request_id"
	// ToolKey is the context key for the current tool being executed
	ToolKey contextKey = "tool"
	// TenantIDKey is the context key for the tenant a request targets
	TenantIDKey contextKey = "tenant_id"
)

// WithRequestID stores a request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTenantID stores the tenant ID in the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// NewLogger creates a new logger with the specified configuration.
// Log output goes to stderr so the stdio transport keeps stdout for
// JSON-RPC frames.
func NewLogger(cfg *LogConfig) *Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize source location format
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					// Simplify the source path to just show filename
					if idx := strings.LastIndex(source.File, "/"); idx >= 0 {
						a.Value = slog.StringValue(fmt.Sprintf("%s:%d", source.File[idx+1:], source.Line))
					} else {
						a.Value = slog.StringValue(fmt.Sprintf("%s:%d", source.File, source.Line))
					}
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		logger = logger.With("request_id", requestID)
	}

	if tool := ctx.Value(ToolKey); tool != nil {
		logger = logger.With("tool", tool)
	}

	if tenantID := ctx.Value(TenantIDKey); tenantID != nil {
		logger = logger.With("tenant_id", tenantID)
	}

	return &Logger{Logger: logger}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		Logger: l.Logger.With("error", err.Error()),
	}
}

// WithField adds a custom field to the logger
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{
		Logger: l.Logger.With(key, value),
	}
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// LogToolCall logs an incoming tool invocation
func (l *Logger) LogToolCall(ctx context.Context, tool string, tenantID string) {
	l.WithContext(ctx).
		WithField("tool", tool).
		WithField("tenant_id", tenantID).
		Info("Tool call received")
}

// LogToolResult logs the outcome of a tool invocation
func (l *Logger) LogToolResult(ctx context.Context, tool string, duration time.Duration, err error) {
	logger := l.WithContext(ctx).
		WithField("tool", tool).
		WithField("duration_ms", float64(duration.Microseconds())/1000.0)

	if err != nil {
		logger.WithError(err).Error("Tool call failed")
	} else {
		logger.Info("Tool call completed")
	}
}

// DefaultLogger creates a default logger with INFO level and text format
func DefaultLogger() *Logger {
	return NewLogger(&LogConfig{
		Level:  "info",
		Format: "text",
	})
}

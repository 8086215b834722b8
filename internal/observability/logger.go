package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"esales-dashboard/internal/config"
)

// NewLogger builds the process logger on stdout. Every record carries the
// service name so logs from several instances can be told apart.
func NewLogger(cfg config.LoggerConfig, service string) *slog.Logger {
	return newLogger(os.Stdout, cfg).With("service", service)
}

func newLogger(w io.Writer, cfg config.LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.Level),
		AddSource: true,
	}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// parseLogLevel accepts slog level names in any case, plus "warning".
// Anything else falls back to info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerFrom returns base annotated with the request and trace IDs carried
// by ctx. With neither present base is returned as is.
func LoggerFrom(ctx context.Context, base *slog.Logger) *slog.Logger {
	var attrs []any
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if id := TraceID(ctx); id != "" {
		attrs = append(attrs, "trace_id", id)
	}
	if len(attrs) == 0 {
		return base
	}
	return base.With(attrs...)
}

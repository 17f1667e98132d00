package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"contest-api/internal/handler/http/requestid"
)

// Output formats accepted by LOG_FORMAT.
const (
	FormatJSON = "json"
	FormatText = "text"
)

const redacted = "[REDACTED]"

// redactedKeys never reach the log output with their value.
// Keys are compared case-insensitively.
var redactedKeys = map[string]struct{}{
	"authorization":    {},
	"client_secret":    {},
	"stripe_secret":    {},
	"stripe_signature": {},
	"webhook_url":      {},
	"admin_token":      {},
	"password":         {},
	"file_data":        {},
}

// Options controls how New builds a logger.
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // json (default) or text
	Output io.Writer // os.Stdout when nil
}

// New builds a logger from opts. Source locations are attached when the
// level is warn or lower so that debug and info runs can trace call sites.
func New(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	hopts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level <= slog.LevelWarn,
		ReplaceAttr: redact,
	}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), FormatText) {
		h = slog.NewTextHandler(out, hopts)
	} else {
		h = slog.NewJSONHandler(out, hopts)
	}
	return slog.New(h)
}

// NewLogger returns a JSON logger on stdout at the given level.
func NewLogger(level string) *slog.Logger {
	return New(Options{Level: level})
}

// ParseLevel maps a LOG_LEVEL value onto a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

// WithRequestID adds the request id from ctx to logger, if there is one.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

// FromContext returns the request-scoped logger stored by WithLogger,
// falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

type loggerKey struct{}

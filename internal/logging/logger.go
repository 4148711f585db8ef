// Package logging configures log/slog for the server and the jobtrack CLI
// and ties log lines to chi's request id.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the server's default logger on stdout.
//
// Level is one of "debug", "info", "warn" or "error" and defaults to info.
// Format "json" selects the JSON handler; anything else logs text.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. jobtrack passes os.Stderr so an export
// written to stdout is not interleaved with log lines:
//
//	a.logger = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// FromContext returns the default logger, tagged with request_id when ctx
// came through middleware.RequestID. The request logger and the export
// handler log this way:
//
//	logging.FromContext(r.Context()).Error("write export", "error", err, "records", len(records))
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields is FromContext plus fields shared by several log lines of one
// request. The import handler keys every line by owner and file:
//
//	logger := logging.WithFields(r.Context(), "owner", owner, "file", header.Filename)
//	logger.Info("import requested", "size", header.Size)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

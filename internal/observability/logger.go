package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/aqi-monitor/internal/config"
)

const serviceName = "aqi-monitor"

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT and sets
// it as the slog default. When the console sink owns stdout, logs go to stderr.
func NewLogger(cfg *config.Config) *slog.Logger {
	if !cfg.ConsoleEnabled {
		logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
		slog.SetDefault(logger)
		return logger
	}
	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

// newLogger mirrors sharedobs.NewLogger, which always writes to stdout.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", serviceName)
}

func parseLevel(level string) slog.Level {
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

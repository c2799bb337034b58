package app

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog.Logger configured from LOG_FORMAT and LOG_LEVEL.
// Production deployments default to JSON; anything else gets text output.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel(cfg),
	}
	if cfg != nil && (cfg.LogFormat == "json" || (cfg.LogFormat != "pretty" && cfg.IsProduction())) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func logLevel(cfg *Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

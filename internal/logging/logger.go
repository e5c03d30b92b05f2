package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/wire"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

// NewLogger creates a new logger based on runtime configuration
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	return newLogger(os.Stderr, cfg.Debug, os.Getenv("LUNEX_LOG_LEVEL"))
}

func newLogger(w io.Writer, debug bool, envLevel string) *slog.Logger {
	level := parseLevel(envLevel)
	opts := &slog.HandlerOptions{Level: level}

	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		// Time is noise outside debug mode
		if a.Key == slog.TimeKey && !debug {
			return slog.Attr{}
		}
		if a.Key == slog.SourceKey {
			if source, ok := a.Value.Any().(*slog.Source); ok {
				source.File = filepath.Join(filepath.Base(filepath.Dir(source.File)), filepath.Base(source.File))
			}
		}
		return a
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel maps LUNEX_LOG_LEVEL to a level; unknown values keep warn
func parseLevel(val string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

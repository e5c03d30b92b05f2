package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("default hides info", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, false, "")
		log.Info("hidden")
		log.Warn("shown", "component", "tracker")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "component=tracker")
		assert.NotContains(t, buf.String(), "time=")
	})

	t.Run("debug flag adds source", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger(&buf, true, "error").Debug("detail")
		assert.Contains(t, buf.String(), "msg=detail")
		assert.Contains(t, buf.String(), "source=logging/logger_test.go")
	})
}

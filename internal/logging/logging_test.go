package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("stderr respects level", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := DefaultConfig()
		cfg.Level = "warn"

		logger, cleanup, err := Setup(cfg, &buf)
		require.NoError(t, err)
		defer func() { _ = cleanup() }()

		logger.Info("hidden")
		logger.Warn("shown", slog.String("operation", "search"))
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "operation=search")
	})

	t.Run("json handler", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := DefaultConfig()
		cfg.JSON = true

		logger, cleanup, err := Setup(cfg, &buf)
		require.NoError(t, err)
		defer func() { _ = cleanup() }()

		logger.Error("boom")
		assert.Contains(t, buf.String(), `"msg":"boom"`)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "leakix.log")
		cfg := DefaultConfig()
		cfg.FilePath = path

		logger, cleanup, err := Setup(cfg, &bytes.Buffer{})
		require.NoError(t, err)

		logger.Error("to file")
		require.NoError(t, cleanup())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})
}

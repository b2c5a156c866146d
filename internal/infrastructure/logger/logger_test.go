package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("nil config falls back to defaults", func(t *testing.T) {
		log, err := New(nil)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("writes JSON entries to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tms.log")
		log, err := New(&Config{Level: "debug", Format: "json", Output: path, Service: "tms-backend", Environment: "staging"})
		require.NoError(t, err)

		log.Debug("load locked", zap.String("load_number", "LD-2026-00001"))
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"load locked"`)
		assert.Contains(t, string(data), `"service":"tms-backend"`)
		assert.Contains(t, string(data), `"env":"staging"`)
		assert.Contains(t, string(data), `"load_number":"LD-2026-00001"`)
	})

	t.Run("unwritable file is an error", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "tms.log")})
		assert.Error(t, err)
	})
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		log, err := NewForEnvironment(env)
		require.NoError(t, err, env)
		assert.NotNil(t, log)
	}
	assert.Equal(t, "json", ProductionConfig().Format)
	assert.Equal(t, "console", DefaultConfig().Format)
	assert.Equal(t, "production", ProductionConfig().Environment)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

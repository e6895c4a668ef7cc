package bazaar_test

import (
	"log/slog"
	"testing"

	"github.com/nasermirzaei89/bazaar"
	"github.com/nasermirzaei89/bazaar/server"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "INFO", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "verbose", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, bazaar.ParseLogLevel(tt.input))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_DSN", "file:test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_NAME", "market")
	t.Setenv("SESSION_KEY", "")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("NATS_URL", "")

	cfg := bazaar.LoadConfig()

	assert.Equal(t, "file:test.db", cfg.DBDSN)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, server.DefaultTLSMode, cfg.Server.TLS.Mode)
	assert.Equal(t, "market", cfg.SessionName)
	assert.Len(t, cfg.SessionKey, 32)
	assert.Equal(t, bazaar.LogFormatJSON, cfg.LogFormat)
	assert.Empty(t, cfg.NATSURL)
}

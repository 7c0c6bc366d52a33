package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"trace", zapcore.Level(-2)},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogLevel(tt.name), tt.name)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "info", "json")

	log.Info("solve finished", "iterations", 4)
	log.V(1).Info("iteration", "index", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "V(1) is hidden at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "solve finished", entry["msg"])
	assert.Equal(t, float64(4), entry["iterations"])
}

func TestNewLoggerVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "trace", "text")

	log.V(1).Info("iteration")
	log.V(2).Info("pass")
	log.V(3).Info("hidden")

	out := buf.String()
	assert.Contains(t, out, "iteration")
	assert.Contains(t, out, "pass")
	assert.NotContains(t, out, "hidden")
}

func TestSetupLoggerEnvFallback(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.True(t, SetupLogger("", "").V(1).Enabled())
	assert.False(t, SetupLogger("", "").V(2).Enabled())

	// explicit values win over the environment
	assert.False(t, SetupLogger("error", "").V(1).Enabled())
	assert.False(t, SetupLogger("error", "json").Enabled())
	assert.True(t, SetupLogger("trace", "").V(2).Enabled())
}

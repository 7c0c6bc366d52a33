package telemetry

import (
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel maps a level name to a zap level. logr verbosity n is zap level
// -n, so TRACE enables V(2).
func LogLevel(name string) zapcore.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zapcore.Level(-2)
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger writes to w. format "json" selects structured output; anything
// else is the console encoder.
func NewLogger(w io.Writer, level, format string) logr.Logger {
	var enc zapcore.Encoder
	if strings.EqualFold(format, "json") {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(LogLevel(level)))
	return zapr.NewLogger(zap.New(core))
}

// SetupLogger builds a stderr logger. Empty level or format fall back to
// LOG_LEVEL and LOG_FORMAT.
func SetupLogger(level, format string) logr.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	return NewLogger(os.Stderr, level, format)
}

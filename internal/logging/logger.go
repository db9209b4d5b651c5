package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar is consulted when no level is passed to Initialize.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "INSTEON_LOG_LEVEL"

// maxDumpBytes caps byte dumps; the longest PLM message is 25 bytes
const maxDumpBytes = 64

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize builds the stderr logger. An empty level falls back to
// INSTEON_LOG_LEVEL; if that is empty too, logging stays silent.
func Initialize(lvl string) error {
	if lvl == "" {
		lvl = os.Getenv(LogLevelEnvVar)
	}
	if lvl == "" {
		logger = zap.NewNop()
		return nil
	}

	parsed, err := zapcore.ParseLevel(strings.ToLower(lvl))
	if err != nil {
		return fmt.Errorf("invalid log level %q: expected debug, info, warn or error", lvl)
	}
	level.SetLevel(parsed)

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encoder.EncodeCaller = zapcore.ShortCallerEncoder

	config := zap.Config{
		Level:            level,
		Encoding:         "console",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built.Named("insteon")
	return nil
}

// InitializeFromEnv initializes the logger from INSTEON_LOG_LEVEL alone
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLevel changes the level of a logger built by Initialize
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// GetLogger returns the global logger, a no-op logger before Initialize
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the global logger (tests use zaptest/observer loggers)
func SetLogger(l *zap.Logger) {
	logger = l
}

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func debugEnabled() bool {
	return GetLogger().Core().Enabled(zapcore.DebugLevel)
}

// LogMessage logs a decoded or outgoing modem message at debug level
func LogMessage(direction, name string, data []byte) {
	if !debugEnabled() {
		return
	}
	Debug("Modem message",
		zap.String("direction", direction),
		zap.String("message", name),
		zap.Int("length", len(data)),
		zap.String("bytes", formatBytes(data)),
	)
}

// LogRawBytes logs bytes as read from the stream, before framing
func LogRawBytes(label string, data []byte) {
	if !debugEnabled() {
		return
	}
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("bytes", formatBytes(data)),
	)
}

// formatBytes renders data as space separated hex pairs, "02 50 1A"
func formatBytes(data []byte) string {
	truncated := len(data) > maxDumpBytes
	if truncated {
		data = data[:maxDumpBytes]
	}

	var sb strings.Builder
	sb.Grow(len(data)*3 + 4)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	if truncated {
		sb.WriteString(" ...")
	}
	return sb.String()
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

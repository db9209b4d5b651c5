package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected silent logger when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	defer SetLogger(nil)

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn level should be enabled")
	}
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info level should be disabled")
	}
}

func TestLogMessageOnlyAtDebug(t *testing.T) {
	tests := []struct {
		name  string
		level zapcore.Level
		want  int
	}{
		{name: "debug enabled", level: zapcore.DebugLevel, want: 2},
		{name: "info only", level: zapcore.InfoLevel, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(tt.level)
			SetLogger(zap.New(core))
			defer SetLogger(nil)

			LogMessage("received", "StandardMessageReceived", []byte{0x02, 0x50})
			LogRawBytes("Data received", []byte{0x02, 0x50})

			if got := logs.Len(); got != tt.want {
				t.Errorf("logged %d entries, want %d", got, tt.want)
			}
		})
	}
}

func TestInitializeLevels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		muted   zapcore.Level
		wantErr bool
	}{
		{level: "debug", enabled: zapcore.DebugLevel, muted: zapcore.DebugLevel},
		{level: "INFO", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
		{level: "error", enabled: zapcore.ErrorLevel, muted: zapcore.WarnLevel},
		{level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			defer SetLogger(nil)

			err := Initialize(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Initialize(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			core := GetLogger().Core()
			if !core.Enabled(tt.enabled) {
				t.Errorf("%v should be enabled", tt.enabled)
			}
			if tt.muted != tt.enabled && core.Enabled(tt.muted) {
				t.Errorf("%v should be disabled", tt.muted)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLogger(nil)
	if err := Initialize("error"); err != nil {
		t.Fatal(err)
	}
	defer SetLevel(zapcore.InfoLevel)

	SetLevel(zapcore.DebugLevel)
	if !GetLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Error("SetLevel(debug) should enable debug output")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "empty", data: nil, want: ""},
		{name: "message", data: []byte{0x02, 0x50, 0x1a}, want: "02 50 1A"},
		{name: "pure nack", data: []byte{0x15}, want: "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatBytes(tt.data); got != tt.want {
				t.Errorf("formatBytes() = %q, want %q", got, tt.want)
			}
		})
	}

	long := formatBytes(make([]byte, 100))
	if want := maxDumpBytes*3 - 1 + len(" ..."); len(long) != want {
		t.Errorf("formatBytes(100 bytes) length = %d, want %d", len(long), want)
	}
}

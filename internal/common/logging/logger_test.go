package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := NewZapLogger(LogConfig{Level: level, Output: buf, Prefix: "test"})
	require.NoError(t, err)
	return logger, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, WarnLevel)

	logger.Debug("token cache hit")
	logger.Info("token refreshed")
	logger.Warn("retrying request", Int("attempt", 2))
	logger.Error("request failed", errors.New("boom"), String("method", "get_achievement"))

	out := buf.String()
	assert.NotContains(t, out, "token cache hit")
	assert.NotContains(t, out, "token refreshed")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "retrying request")
	assert.Contains(t, out, `"attempt": 2`)
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "get_achievement")
}

func TestZapLogger_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	logger.WithFields(String("region", "eu")).Info("token refreshed")

	assert.Contains(t, buf.String(), `"region": "eu"`)
	assert.Same(t, logger, logger.WithFields())
}

func TestZapLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithOperation(ctx, "get_achievement")
	logger.WithContext(ctx).Info("executing")

	out := buf.String()
	assert.Contains(t, out, `"request_id": "req-123"`)
	assert.Contains(t, out, `"operation": "get_achievement"`)

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("my-client-id")

	assert.Len(t, fp, 8)
	assert.Equal(t, fp, Fingerprint("my-client-id"))
	assert.NotEqual(t, fp, Fingerprint("other-client-id"))
	assert.NotContains(t, fp, "my-client-id")
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	logger, buf := newBufferLogger(t, DebugLevel)
	SetGlobalLogger(logger)

	Info("global info", String("k", "v"))
	Warn("global warn")
	Error("global error", nil)
	WithFields(Bool("classic", true)).Debug("with fields")

	out := buf.String()
	assert.Contains(t, out, "global info")
	assert.Contains(t, out, "global warn")
	assert.Contains(t, out, "global error")
	assert.Contains(t, out, `"classic": true`)
}

func TestInitGlobalLogger_LogFile(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	path := filepath.Join(t.TempDir(), "client.log")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", path)

	require.NoError(t, InitGlobalLogger())
	Info("written to file")
	MustSync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestInitGlobalLogger_BadLogFile(t *testing.T) {
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "missing", "dir", "client.log"))

	err := InitGlobalLogger()
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Error("discarded", errors.New("x"))
		logger.WithContext(ContextWithRequestID(context.Background(), "id")).Info("discarded")
	})
}

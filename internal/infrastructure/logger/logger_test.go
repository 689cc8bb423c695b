package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crmmini/core/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	l, err := New(config.LoggerConfig{Level: "info", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New(config.LoggerConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(config.LoggerConfig{Level: "debug", Format: "json", Output: "file", Filename: path})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Close()
	assert.FileExists(t, path)
}

func TestLogHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithComponent("test")

	l.WithRequestID("req-1").LogIncomingRequest("GET", "/customers")
	l.LogHTTPRequest("PUT", "/customers/1", "127.0.0.1", 404, 1.5, nil)
	l.LogHTTPRequest("GET", "/customers", "127.0.0.1", 500, 2, errors.New("boom"))
	l.LogStoreOperation("save", 3, 0.5, errors.New("disk full"))

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "Incoming request", entries[0].Message)
	assert.Equal(t, "test", entries[0].ContextMap()["component"])
	assert.Equal(t, "/customers", entries[0].ContextMap()["path"])
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])

	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.Equal(t, "save", entries[3].ContextMap()["operation"])
}

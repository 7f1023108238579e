package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe swaps the global logger for an observed one until the test ends.
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)

	mu.Lock()
	previous := globalLogger
	globalLogger = zap.New(core)
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		globalLogger = previous
		mu.Unlock()
	})
	return logs
}

func TestWithContextAddsConnector(t *testing.T) {
	logs := observe(t)

	ctx := context.WithValue(context.Background(), ConnectorKey, "typo")
	WithContext(ctx).Info("sync started")
	WithContext(context.Background()).Info("no connector")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "typo", entries[0].ContextMap()["connector"])
	assert.NotContains(t, entries[1].ContextMap(), "connector")
}

func TestPackageLevelHelpers(t *testing.T) {
	logs := observe(t)

	Info("discovery completed", zap.Int("streams", 2))
	Error("tap-typo failed", zap.String("error_type", "config"))
	With(zap.String("component", "cli")).Info("child")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(2), entries[0].ContextMap()["streams"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "cli", entries[2].ContextMap()["component"])
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	observe(t)
	require.Error(t, Init(Config{Level: "loud"}))
}

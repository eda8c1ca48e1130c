package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/starcase/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: format}, "test")
		require.NoError(t, err, "format %q", format)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_Rejects(t *testing.T) {
	_, _, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "")
	assert.Error(t, err)
	_, _, err = NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "")
	assert.Error(t, err)
}

func TestNewLogger_LevelIsAdjustable(t *testing.T) {
	logger, level, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, "casino")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestPlayer_AddsField(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Player(zap.New(core), "alice").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "alice", logs.All()[0].ContextMap()["player"])
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/execbox/config"
)

func TestLoggerNew(t *testing.T) {
	t.Run("ValidDevelopmentMode", func(t *testing.T) {
		logger, err := New("development", "debug")
		require.NoError(t, err)
		assert.NotNil(t, logger)
		_ = logger.Sync()
	})

	t.Run("ValidProductionMode", func(t *testing.T) {
		logger, err := New("production", "info")
		require.NoError(t, err)
		assert.NotNil(t, logger)
		_ = logger.Sync()
	})

	t.Run("InvalidMode", func(t *testing.T) {
		_, err := New("verbose", "info")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging mode")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := New("production", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging level")
	})

	t.Run("AllLevels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"} {
			logger, err := New("production", level)
			require.NoError(t, err, "level %s", level)
			assert.NotNil(t, logger)
		}
	})
}

func TestLoggerNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Logging: config.Logging{Mode: "development", Level: "debug"},
	}
	logger, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

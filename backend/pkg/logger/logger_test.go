package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_LevelOverride(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, Init("production", "warn"))
	assert.False(t, Get().Core().Enabled(zap.InfoLevel))
	assert.True(t, Get().Core().Enabled(zap.WarnLevel))
}

func TestInit_InvalidLevel(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	assert.Error(t, Init("development", "loud"))
}

func TestGet_FallbackWhenUninitialized(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	assert.NotNil(t, Named("realtime"))
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := New(zap.New(core))

	l.LogDebugf("hidden %d", 1)
	l.LogInfo("quote %v computed", "q-1")
	l.LogWarnf("cache %v unavailable", "redis")
	l.LogErrorf("failed: %v", "boom")
	l.StdLogger().Print("server error")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "quote q-1 computed", entries[0].Message)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "failed: boom", entries[2].Message)
	assert.Equal(t, "server error", entries[3].Message)
}

func TestNewZap(t *testing.T) {
	l, err := NewZap("production", "warn")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewZap("development", "loud")
	assert.Error(t, err)
}

package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeLogger_ReplacesGlobals(t *testing.T) {
	previous := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(previous) })

	logger, cleanup := InitializeLogger()
	defer cleanup()

	require.NotNil(t, logger)
	require.Same(t, logger, zap.L())
	require.NotSame(t, previous, zap.L())
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(errors.New("sync /dev/stderr: inappropriate ioctl for device")))
	assert.True(t, isIgnorableSyncError(errors.New("sync /dev/stdout: inappropriate ioctl for device")))
	assert.False(t, isIgnorableSyncError(errors.New("sync /var/log/bot.log: no space left on device")))
}

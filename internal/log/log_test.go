package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		logger, err := New(false, "", true)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
	})

	t.Run("verbose to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bew.log")
		logger, err := New(true, path, true)
		require.NoError(t, err)

		logger.Debug("pulled surface into buffer")
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "pulled surface into buffer")
	})

	t.Run("info level", func(t *testing.T) {
		logger, err := New(true, filepath.Join(t.TempDir(), "bew.log"), false)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zap.DebugLevel))
		assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	})
}

func TestSet(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	logger := zap.NewExample()
	Set(logger)
	assert.Same(t, logger, Get())

	Set(nil)
	assert.NotNil(t, Get())
}

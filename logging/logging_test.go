package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-facefilter/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesFile(t *testing.T) {
	cfg := config.Default().Logging
	cfg.File = filepath.Join(t.TempDir(), "facefilter.log")

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("frame rendered", zap.Int("cells", 15))
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"frame rendered"`)
	assert.Contains(t, string(data), `"cells":15`)
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := config.Default().Logging
	cfg.Level = "chatty"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRotator(t *testing.T) {
	cfg := config.Default().Logging
	cfg.File = "out.log"

	r := Rotator(cfg)
	assert.Equal(t, "out.log", r.Filename)
	assert.Equal(t, 100, r.MaxSize)
	assert.Equal(t, 10, r.MaxBackups)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Info("ignored") })
}

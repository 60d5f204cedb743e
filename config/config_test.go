package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, Gallery{CellWidth: 160, CellHeight: 120, Columns: 3, Rows: 5}, cfg.Gallery)
	assert.Equal(t, Filters{BlurLevel: 10, BlockSize: 5, Threshold: 125}, cfg.Filters)
	assert.Equal(t, 1.1, cfg.Detector.ScaleFactor)
	assert.Equal(t, 3, cfg.Detector.MinNeighbors)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.Profiler.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
gallery:
  cell-width: 320
filters:
  blur-level: 4
  legacy-row-bound: true
  threshold: 0
logging:
  level: debug
profiler:
  interval: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 320, cfg.Gallery.CellWidth)
	assert.Equal(t, 120, cfg.Gallery.CellHeight)
	assert.Equal(t, 4, cfg.Filters.BlurLevel)
	assert.True(t, cfg.Filters.LegacyRowBound)
	assert.Equal(t, 0, cfg.Filters.Threshold)
	assert.Equal(t, 5, cfg.Filters.BlockSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Profiler.Interval)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "filters:\n  blur-level: 4\n")
	t.Setenv("FACEFILTER_FILTERS_BLUR_LEVEL", "7")
	t.Setenv("FACEFILTER_CAPTURE_DEVICE_ID", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Filters.BlurLevel)
	assert.Equal(t, 2, cfg.Capture.DeviceID)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"threshold above byte", "filters:\n  threshold: 300\n"},
		{"zero block size", "filters:\n  block-size: -1\n"},
		{"unknown level", "logging:\n  level: loud\n"},
		{"scale factor too small", "detector:\n  scale-factor: 0.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

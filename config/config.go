// Package config loads the face filter settings from YAML and environment
// variables.
//
// Precedence, lowest first: struct tag defaults, the config file, then
// FACEFILTER_* environment variables (FACEFILTER_FILTERS_BLUR_LEVEL and so on).
package config

import (
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "FACEFILTER"

// Config is the root configuration.
type Config struct {
	Gallery  Gallery  `mapstructure:"gallery" yaml:"gallery"`
	Filters  Filters  `mapstructure:"filters" yaml:"filters"`
	Detector Detector `mapstructure:"detector" yaml:"detector"`
	Logging  Logging  `mapstructure:"logging" yaml:"logging"`
	Capture  Capture  `mapstructure:"capture" yaml:"capture"`
	Profiler Profiler `mapstructure:"profiler" yaml:"profiler"`
}

// Gallery is the grid of cells drawn every frame.
type Gallery struct {
	// CellWidth is the width every frame is scaled to.
	CellWidth int `mapstructure:"cell-width" yaml:"cell-width" default:"160" validate:"min=1"`
	// CellHeight is the height every frame is scaled to.
	CellHeight int `mapstructure:"cell-height" yaml:"cell-height" default:"120" validate:"min=1"`
	// Columns is the number of cells per row.
	Columns int `mapstructure:"columns" yaml:"columns" default:"3" validate:"min=1"`
	// Rows is the number of cell rows.
	Rows int `mapstructure:"rows" yaml:"rows" default:"5" validate:"min=1"`
}

// Filters holds the parameters of the filters the gallery and CLI apply.
type Filters struct {
	// BlurLevel is the box blur kernel size.
	BlurLevel int `mapstructure:"blur-level" yaml:"blur-level" default:"10" validate:"min=1,max=64"`
	// BlockSize is the pixelation block edge in pixels.
	BlockSize int `mapstructure:"block-size" yaml:"block-size" default:"5" validate:"min=1"`
	// LegacyRowBound bounds pixelation rows by the width instead of the height.
	LegacyRowBound bool `mapstructure:"legacy-row-bound" yaml:"legacy-row-bound"`
	// Threshold is the initial value of the threshold sliders.
	Threshold int `mapstructure:"threshold" yaml:"threshold" default:"125" validate:"min=0,max=255"`
}

// Detector configures the Haar cascade face detector.
type Detector struct {
	FaceCascade  string  `mapstructure:"face-cascade" yaml:"face-cascade" default:"data/haarcascade_frontalface_default.xml" validate:"required"`
	EyeCascade   string  `mapstructure:"eye-cascade" yaml:"eye-cascade"`
	ScaleFactor  float64 `mapstructure:"scale-factor" yaml:"scale-factor" default:"1.1" validate:"gt=1"`
	MinNeighbors int     `mapstructure:"min-neighbors" yaml:"min-neighbors" default:"3" validate:"min=1"`
	MinSize      int     `mapstructure:"min-size" yaml:"min-size" default:"30" validate:"min=0"`
}

// Logging configures the zap logger.
type Logging struct {
	// Level is the minimum level written.
	Level string `mapstructure:"level" yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	// Format is the console encoding, console or json.
	Format string `mapstructure:"format" yaml:"format" default:"console" validate:"oneof=console json"`
	// File enables JSON logs to a rotated file when set.
	File string `mapstructure:"file" yaml:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `mapstructure:"max-size-mb" yaml:"max-size-mb" default:"100" validate:"min=1"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max-backups" yaml:"max-backups" default:"10" validate:"min=0"`
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `mapstructure:"max-age-days" yaml:"max-age-days" default:"7" validate:"min=0"`
	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Capture configures the webcam.
type Capture struct {
	// DeviceID is the video capture device index.
	DeviceID int `mapstructure:"device-id" yaml:"device-id" default:"0" validate:"min=0"`
	// DetectEvery requests a detection every N frames.
	DetectEvery int `mapstructure:"detect-every" yaml:"detect-every" default:"1" validate:"min=1"`
	// Snapshot is the directory snapshots are written to.
	Snapshot string `mapstructure:"snapshot" yaml:"snapshot" default:"snapshots"`
}

// Profiler configures periodic timing summaries.
type Profiler struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval" default:"10s" validate:"gt=0"`
}

// keys lists every setting so environment variables override values that
// are absent from the config file.
var keys = []string{
	"gallery.cell-width", "gallery.cell-height", "gallery.columns", "gallery.rows",
	"filters.blur-level", "filters.block-size", "filters.legacy-row-bound", "filters.threshold",
	"detector.face-cascade", "detector.eye-cascade", "detector.scale-factor",
	"detector.min-neighbors", "detector.min-size",
	"logging.level", "logging.format", "logging.file", "logging.max-size-mb",
	"logging.max-backups", "logging.max-age-days", "logging.compress",
	"capture.device-id", "capture.detect-every", "capture.snapshot",
	"profiler.enabled", "profiler.interval",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration built from struct tag defaults only.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// Tags are static, so this only fails on a programming error.
		panic(err)
	}
	return cfg
}

// Load reads the configuration.
//
// Arguments:
// - path: A YAML file, or "" to use defaults and the environment only.
//
// Returns:
// - *Config: The validated configuration.
// - error: An error if the file cannot be read or a value is invalid.
//
// @example
// cfg, err := config.Load("config.yaml")
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "failed to bind env for %s", key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every value against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

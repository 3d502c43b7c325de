package boot

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/agiangrant/boot/internal/logging"
)

// EnvPrefix is the prefix of environment variables that override the config
// file, e.g. BOOT_FIXED_SIZE=true.
const EnvPrefix = "BOOT"

// Config configures one application run. The driver reads it once at boot
// and never modifies it.
type Config struct {
	// FixedSize selects a fixed Width x Height surface. When false the surface
	// follows the host window minus the padding.
	FixedSize bool `toml:"fixed_size" envconfig:"FIXED_SIZE"`
	Width     int  `toml:"width" envconfig:"WIDTH"`
	Height    int  `toml:"height" envconfig:"HEIGHT"`

	// Padding subtracted from the host window size in resizable mode.
	PadHorizontal int `toml:"pad_horizontal" envconfig:"PAD_HORIZONTAL"`
	PadVertical   int `toml:"pad_vertical" envconfig:"PAD_VERTICAL"`

	// UsePhysicalPixels sizes the surface in device pixels instead of
	// logical (CSS) pixels.
	UsePhysicalPixels bool `toml:"use_physical_pixels" envconfig:"USE_PHYSICAL_PIXELS"`

	DisableAudio bool `toml:"disable_audio" envconfig:"DISABLE_AUDIO"`

	// LogLevel is one of none, error, info, debug.
	LogLevel string `toml:"log_level" envconfig:"LOG_LEVEL"`
	// LogFormat is console or json.
	LogFormat string `toml:"log_format" envconfig:"LOG_FORMAT"`

	// Manifest is the asset manifest reference handed to the transport.
	Manifest string `toml:"manifest" envconfig:"MANIFEST"`
	// AssetBaseURL is the root that manifest paths are resolved against by
	// the HTTP transport.
	AssetBaseURL string `toml:"asset_base_url" envconfig:"ASSET_BASE_URL"`
	// PreloadTimeout bounds each asset fetch. Zero waits forever.
	PreloadTimeout Duration `toml:"preload_timeout" envconfig:"PRELOAD_TIMEOUT"`

	// TargetFPS paces schedulers that are not driven by a display.
	TargetFPS int `toml:"target_fps" envconfig:"TARGET_FPS"`

	// PreferencesPath is the SQLite database for persisted preferences.
	// Empty keeps preferences in memory.
	PreferencesPath string `toml:"preferences_path" envconfig:"PREFERENCES_PATH"`
}

// DefaultConfig returns the defaults for a resizable application.
func DefaultConfig() Config {
	return Config{
		PadHorizontal: 10,
		PadVertical:   10,
		LogLevel:      "error",
		LogFormat:     "console",
		Manifest:      "assets.txt",
		TargetFPS:     60,
	}
}

// LoadConfig reads a TOML config file on top of DefaultConfig and then
// applies BOOT_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if c.FixedSize && (c.Width <= 0 || c.Height <= 0) {
		errs = append(errs, fmt.Errorf("fixed size requires positive width and height, got %dx%d", c.Width, c.Height))
	}
	if c.PadHorizontal < 0 || c.PadVertical < 0 {
		errs = append(errs, fmt.Errorf("padding must not be negative, got %d,%d", c.PadHorizontal, c.PadVertical))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.TargetFPS < 0 {
		errs = append(errs, fmt.Errorf("target fps must not be negative, got %d", c.TargetFPS))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Logging maps the log settings onto a logger configuration. An empty
// format means console output.
func (c Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.LogLevel); err == nil {
		lc.Level = level
	}
	if c.LogFormat != "" {
		lc.Format = c.LogFormat
	}
	return lc
}

// Duration is a time.Duration that decodes from strings like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

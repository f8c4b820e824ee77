// Package config loads the drawing surface configuration from TOML.
// Every value defaults to the behavior of the reference drawing app.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"FadingInk/internal/logging"
	"FadingInk/internal/state"

	"github.com/BurntSushi/toml"
)

// FadePolicy decides which strokes start fading when a stroke is finished.
type FadePolicy string

const (
	// FadeAll marks every live stroke fade-eligible, including strokes
	// still being drawn elsewhere. This is the reference behavior.
	FadeAll FadePolicy = "all"
	// FadeCompleted marks only the stroke that was just finished.
	FadeCompleted FadePolicy = "completed"
)

type Config struct {
	Canvas  CanvasConfig   `toml:"canvas"`
	Fade    FadeConfig     `toml:"fade"`
	Relay   RelayConfig    `toml:"relay"`
	Logging logging.Config `toml:"logging"`
}

type CanvasConfig struct {
	// BlockSize is the smoothing grid cell in pixels.
	BlockSize    int         `toml:"block_size"`
	StrokeWidth  float64     `toml:"stroke_width"`
	ShadowRadius float64     `toml:"shadow_radius"`
	InitialColor state.Color `toml:"initial_color"`
	Background   state.Color `toml:"background"`
}

type FadeConfig struct {
	Interval Duration   `toml:"interval"`
	Step     int        `toml:"step"`
	Policy   FadePolicy `toml:"policy"`
}

type RelayConfig struct {
	Port int `toml:"port"`
	// Advertise publishes the session over mDNS when hosting.
	Advertise bool   `toml:"advertise"`
	Path      string `toml:"path"`
}

// Duration wraps time.Duration so it can be written as "100ms" in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func DefaultConfig() Config {
	return Config{
		Canvas: CanvasConfig{
			BlockSize:    8,
			StrokeWidth:  state.DefaultStrokeWidth,
			ShadowRadius: state.DefaultShadowRadius,
			InitialColor: state.Red,
			Background:   state.Background,
		},
		Fade: FadeConfig{
			Interval: Duration{100 * time.Millisecond},
			Step:     5,
			Policy:   FadeAll,
		},
		Relay: RelayConfig{
			Port:      8888,
			Advertise: true,
			Path:      "/ink",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults.
func Parse(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Canvas.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("canvas.block_size must be positive, got %d", c.Canvas.BlockSize))
	}
	if c.Canvas.StrokeWidth <= 0 {
		errs = append(errs, fmt.Errorf("canvas.stroke_width must be positive, got %v", c.Canvas.StrokeWidth))
	}
	if c.Canvas.ShadowRadius < 0 {
		errs = append(errs, fmt.Errorf("canvas.shadow_radius must not be negative, got %v", c.Canvas.ShadowRadius))
	}
	if c.Fade.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("fade.interval must be positive, got %s", c.Fade.Interval))
	}
	if c.Fade.Step <= 0 || c.Fade.Step > 255 {
		errs = append(errs, fmt.Errorf("fade.step must be in 1..255, got %d", c.Fade.Step))
	}
	switch c.Fade.Policy {
	case FadeAll, FadeCompleted:
	default:
		errs = append(errs, fmt.Errorf("fade.policy must be %q or %q, got %q", FadeAll, FadeCompleted, c.Fade.Policy))
	}
	if c.Relay.Port < 0 || c.Relay.Port > 65535 {
		errs = append(errs, fmt.Errorf("relay.port out of range: %d", c.Relay.Port))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}

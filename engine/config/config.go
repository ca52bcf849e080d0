// package config loads the engine configuration from a TOML file layered over defaults,
// and the scene preset manifest from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the complete engine configuration.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Engine   EngineConfig   `toml:"engine"`
	Viewport ViewportConfig `toml:"viewport"`
	Assets   AssetsConfig   `toml:"assets"`
	Shadow   ShadowConfig   `toml:"shadow"`
	Logging  LoggingConfig  `toml:"logging"`
	Prefetch PrefetchConfig `toml:"prefetch"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// Headless runs the engine on the in-memory backend without opening a window.
	Headless bool `toml:"headless"`
}

type EngineConfig struct {
	// MaxFrames stops the loop after that many frames; 0 runs until the window closes.
	MaxFrames       uint64        `toml:"max_frames"`
	FrameInterval   time.Duration `toml:"frame_interval"`
	ProfileInterval time.Duration `toml:"profile_interval"`
}

type ViewportConfig struct {
	FovDegrees float32 `toml:"fov_degrees"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
}

type AssetsConfig struct {
	Root    string `toml:"root"`
	Presets string `toml:"presets"`
	Script  string `toml:"script"`
	Cache   bool   `toml:"cache"`
}

type ShadowConfig struct {
	Resolution uint32 `toml:"resolution"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type PrefetchConfig struct {
	Workers   int      `toml:"workers"`
	QueueSize int      `toml:"queue_size"`
	Paths     []string `toml:"paths"`
}

// Load reads the TOML file at path over the defaults.
//
// Parameters:
//   - path: the configuration file
//
// Returns:
//   - *Config: the merged configuration
//   - error: if the file cannot be read or parsed
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy",
			Width:  1280,
			Height: 720,
		},
		Engine: EngineConfig{
			FrameInterval:   16 * time.Millisecond,
			ProfileInterval: 5 * time.Second,
		},
		Viewport: ViewportConfig{
			FovDegrees: 45,
			Near:       0.1,
			Far:        100,
		},
		Assets: AssetsConfig{
			Root:  "assets",
			Cache: true,
		},
		Shadow: ShadowConfig{
			Resolution: 512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Prefetch: PrefetchConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}

func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Viewport.Near <= 0 || c.Viewport.Far <= c.Viewport.Near {
		return fmt.Errorf("viewport clip planes near=%v far=%v are invalid", c.Viewport.Near, c.Viewport.Far)
	}
	if c.Viewport.FovDegrees <= 0 || c.Viewport.FovDegrees >= 180 {
		return fmt.Errorf("viewport fov %v must be in (0, 180)", c.Viewport.FovDegrees)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format %q must be json or console", c.Logging.Format)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/papapumpkin/unlockmap/internal/layout"
)

// LayoutConfig holds pixel spacing for the map.
type LayoutConfig struct {
	HSpacing   float64 `mapstructure:"h_spacing"`
	VSpacing   float64 `mapstructure:"v_spacing"`
	NodeWidth  float64 `mapstructure:"node_width"`
	NodeHeight float64 `mapstructure:"node_height"`
	Compact    bool    `mapstructure:"compact"`
}

// TerminalConfig holds spacing for the terminal map, in character cells.
type TerminalConfig struct {
	HSpacing   int `mapstructure:"h_spacing"`
	VSpacing   int `mapstructure:"v_spacing"`
	NodeWidth  int `mapstructure:"node_width"`
	NodeHeight int `mapstructure:"node_height"`
}

// AuthConfig identifies the viewer. Both fields set means signed in.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Token    string `mapstructure:"token"`
}

// RemoteConfig points at the progress service.
type RemoteConfig struct {
	URL              string        `mapstructure:"url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds all runtime configuration for an unlockmap session.
// Values are populated from .unlockmap.yaml, UNLOCKMAP_* env vars, and CLI flags.
type Config struct {
	CatalogPath string         `mapstructure:"catalog_path"`
	DataDir     string         `mapstructure:"data_dir"`
	DBPath      string         `mapstructure:"db_path"`
	CachePath   string         `mapstructure:"cache_path"`
	ActivityLog string         `mapstructure:"activity_log"`
	Layout      LayoutConfig   `mapstructure:"layout"`
	Terminal    TerminalConfig `mapstructure:"terminal"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Remote      RemoteConfig   `mapstructure:"remote"`
	Log         LogConfig      `mapstructure:"log"`
	Verbose     bool           `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. Empty database,
// cache, and activity log paths resolve inside the data directory; an
// activity log of "off" disables the journal.
func Load() (Config, error) {
	def := layout.DefaultSpacing()
	viper.SetDefault("catalog_path", "")
	viper.SetDefault("data_dir", defaultDataDir())
	viper.SetDefault("db_path", "")
	viper.SetDefault("cache_path", "")
	viper.SetDefault("activity_log", "")
	viper.SetDefault("layout.h_spacing", def.H)
	viper.SetDefault("layout.v_spacing", def.V)
	viper.SetDefault("layout.node_width", def.NodeW)
	viper.SetDefault("layout.node_height", def.NodeH)
	viper.SetDefault("layout.compact", false)
	viper.SetDefault("terminal.h_spacing", 18)
	viper.SetDefault("terminal.v_spacing", 5)
	viper.SetDefault("terminal.node_width", 16)
	viper.SetDefault("terminal.node_height", 3)
	viper.SetDefault("auth.username", "")
	viper.SetDefault("auth.token", "")
	viper.SetDefault("remote.url", "")
	viper.SetDefault("remote.timeout", 10*time.Second)
	viper.SetDefault("remote.failure_threshold", 3)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "progress.db")
	}
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(cfg.DataDir, "progress.toml")
	}
	if cfg.ActivityLog == "" {
		cfg.ActivityLog = filepath.Join(cfg.DataDir, "activity.jsonl")
	}
	if cfg.Verbose && cfg.Log.Level != "trace" {
		cfg.Log.Level = "debug"
	}
	if !cfg.Spacing().Valid() {
		return Config{}, fmt.Errorf("config: layout spacing must be positive: %+v", cfg.Layout)
	}
	t := cfg.Terminal
	if t.HSpacing <= 0 || t.VSpacing <= 0 || t.NodeWidth <= 0 || t.NodeHeight <= 0 {
		return Config{}, fmt.Errorf("config: terminal spacing must be positive: %+v", t)
	}
	return cfg, nil
}

// JournalEnabled reports whether the activity journal should be written.
func (c Config) JournalEnabled() bool {
	return c.ActivityLog != "off"
}

// Spacing returns the pixel spacing profile. The compact flag selects the
// small-viewport profile and ignores the individual values.
func (c Config) Spacing() layout.Spacing {
	if c.Layout.Compact {
		return layout.CompactSpacing()
	}
	return layout.Spacing{
		H:     c.Layout.HSpacing,
		V:     c.Layout.VSpacing,
		NodeW: c.Layout.NodeWidth,
		NodeH: c.Layout.NodeHeight,
	}
}

// TerminalSpacing returns the terminal grid in cells as a layout.Spacing.
func (c Config) TerminalSpacing() layout.Spacing {
	return layout.Spacing{
		H:     float64(c.Terminal.HSpacing),
		V:     float64(c.Terminal.VSpacing),
		NodeW: float64(c.Terminal.NodeWidth),
		NodeH: float64(c.Terminal.NodeHeight),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "unlockmap")
	}
	return ".unlockmap"
}

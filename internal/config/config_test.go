package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/papapumpkin/unlockmap/internal/layout"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"CatalogPath", cfg.CatalogPath, ""},
		{"DBPath", cfg.DBPath, filepath.Join(cfg.DataDir, "progress.db")},
		{"CachePath", cfg.CachePath, filepath.Join(cfg.DataDir, "progress.toml")},
		{"ActivityLog", cfg.ActivityLog, filepath.Join(cfg.DataDir, "activity.jsonl")},
		{"JournalEnabled", cfg.JournalEnabled(), true},
		{"Spacing", cfg.Spacing(), layout.DefaultSpacing()},
		{"TerminalNodeWidth", cfg.Terminal.NodeWidth, 16},
		{"RemoteURL", cfg.Remote.URL, ""},
		{"RemoteTimeout", cfg.Remote.Timeout, 10 * time.Second},
		{"FailureThreshold", cfg.Remote.FailureThreshold, uint32(3)},
		{"LogLevel", cfg.Log.Level, "warn"},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetViper()

	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "catalog_path",
			envKey: "UNLOCKMAP_CATALOG_PATH",
			envVal: "/tmp/catalog.toml",
			field:  func(c Config) any { return c.CatalogPath },
			want:   "/tmp/catalog.toml",
		},
		{
			name:   "data_dir",
			envKey: "UNLOCKMAP_DATA_DIR",
			envVal: "/tmp/um",
			field:  func(c Config) any { return c.CachePath },
			want:   "/tmp/um/progress.toml",
		},
		{
			name:   "layout.h_spacing",
			envKey: "UNLOCKMAP_LAYOUT_H_SPACING",
			envVal: "200",
			field:  func(c Config) any { return c.Spacing().H },
			want:   200.0,
		},
		{
			name:   "auth.username",
			envKey: "UNLOCKMAP_AUTH_USERNAME",
			envVal: "kim",
			field:  func(c Config) any { return c.Auth.Username },
			want:   "kim",
		},
		{
			name:   "remote.timeout",
			envKey: "UNLOCKMAP_REMOTE_TIMEOUT",
			envVal: "3s",
			field:  func(c Config) any { return c.Remote.Timeout },
			want:   3 * time.Second,
		},
		{
			name:   "activity_log off",
			envKey: "UNLOCKMAP_ACTIVITY_LOG",
			envVal: "off",
			field:  func(c Config) any { return c.JournalEnabled() },
			want:   false,
		},
		{
			name:   "verbose",
			envKey: "UNLOCKMAP_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Log.Level },
			want:   "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Set env prefix so UNLOCKMAP_* env vars map to config keys.
			viper.SetEnvPrefix("UNLOCKMAP")
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_Compact(t *testing.T) {
	resetViper()
	viper.Set("layout.compact", true)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Spacing() != layout.CompactSpacing() {
		t.Errorf("Spacing = %+v, want compact profile", cfg.Spacing())
	}
}

func TestLoad_RejectsBadSpacing(t *testing.T) {
	resetViper()
	viper.Set("layout.node_width", 0)

	if _, err := Load(); err == nil {
		t.Error("zero node width should be rejected")
	}

	resetViper()
	viper.Set("terminal.v_spacing", -1)
	if _, err := Load(); err == nil {
		t.Error("negative terminal spacing should be rejected")
	}
}

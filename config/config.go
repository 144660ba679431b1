// Package config loads the editor configuration from patchbay.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds patchbay configuration.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	View    ViewConfig    `toml:"view"`
	Catalog CatalogConfig `toml:"catalog"`
	Guides  GuidesConfig  `toml:"guides"`
	Log     LogConfig     `toml:"log"`
}

// WindowConfig controls the application window.
type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// ViewConfig controls camera behavior.
type ViewConfig struct {
	MinZoom     float64 `toml:"min_zoom"`
	MaxZoom     float64 `toml:"max_zoom"`
	GridSpacing float64 `toml:"grid_spacing"`
}

// CatalogConfig controls node type loading.
type CatalogConfig struct {
	Path   string `toml:"path"`   // catalog YAML, empty = embedded default
	Reload bool   `toml:"reload"` // watch the file and hot reload
}

// GuidesConfig controls smart-guide snapping.
type GuidesConfig struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float64 `toml:"threshold"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Window:  WindowConfig{Width: 1440, Height: 900, Title: "patchbay"},
		View:    ViewConfig{MinZoom: 0.1, MaxZoom: 10, GridSpacing: 32},
		Catalog: CatalogConfig{Reload: true},
		Guides:  GuidesConfig{Enabled: true, Threshold: 6},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the config at path, falling back to defaults when the
// file is absent. Unknown keys are ignored, missing keys keep their
// defaults.
func Load(path string) *Config {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = toml.Unmarshal(data, cfg)
	cfg.normalize()
	return cfg
}

// DefaultPath is the conventional config location.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "patchbay", "patchbay.toml")
}

// Save writes the config to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// normalize clamps nonsense values back into a usable range.
func (c *Config) normalize() {
	if c.Window.Width <= 0 {
		c.Window.Width = 1440
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 900
	}
	if c.View.MinZoom <= 0 {
		c.View.MinZoom = 0.1
	}
	if c.View.MaxZoom <= c.View.MinZoom {
		c.View.MaxZoom = 10
	}
	if c.View.GridSpacing <= 0 {
		c.View.GridSpacing = 32
	}
	if c.Guides.Threshold <= 0 {
		c.Guides.Threshold = 6
	}
}

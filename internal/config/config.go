// Package config loads and saves the application configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"civicline/internal/link"
	"civicline/internal/nav"
	"civicline/internal/source"
	"civicline/internal/timeline"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the web
// surface.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// LinkConfig exposes the fuzzy-match constants. They are fixed
// production values with no documented derivation; kept configurable
// rather than hard-coded.
type LinkConfig struct {
	// Threshold is the minimum accepted title similarity.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// ContainScore is the score for substring containment.
	ContainScore float64 `yaml:"contain_score" json:"contain_score"`
}

// ViewConfig tunes the viewer-facing lifecycle and navigation.
type ViewConfig struct {
	// VisibleThreshold is the visible-area fraction that triggers a
	// unit's visible state.
	VisibleThreshold float64 `yaml:"visible_threshold" json:"visible_threshold"`
	// CooldownMillis is the navigation cooldown window.
	CooldownMillis int `yaml:"cooldown_ms" json:"cooldown_ms"`
	// MinNavWidth disables discrete navigation below this viewport
	// width.
	MinNavWidth int `yaml:"min_nav_width" json:"min_nav_width"`
	// ReducedMotion jumps instead of animating.
	ReducedMotion bool `yaml:"reduced_motion" json:"reduced_motion"`
}

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
	MaxPerEvent int `yaml:"max_per_event" json:"max_per_event"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Mode selects past / upcoming / all.
	Mode string `yaml:"mode" json:"mode"`

	// DataDir is where the source tables and recap files live.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Timezone is the IANA timezone used as the calendar zone for
	// date resolution (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// periodic table refresh in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Tables overrides the resource behind each table; entries may be
	// file names relative to DataDir or http(s) URLs.
	Tables source.TableRefs `yaml:"tables" json:"tables"`

	// RecapDir is the directory recap summaries live under, relative
	// to DataDir.
	RecapDir string `yaml:"recap_dir" json:"recap_dir"`

	Link   LinkConfig   `yaml:"link" json:"link"`
	View   ViewConfig   `yaml:"view" json:"view"`
	Expand ExpandConfig `yaml:"expand" json:"expand"`

	// LogLevel is debug, info or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration, with the
// table refs already resolved to their conventional file names.
func DefaultConfig() *Config {
	cfg := &Config{
		Listen:      "127.0.0.1:8080",
		Mode:        string(timeline.ModeAll),
		DataDir:     "./data",
		Timezone:    "America/New_York",
		RefreshCron: "*/15 * * * *",
		RecapDir:    "recaps",
		Link: LinkConfig{
			Threshold:    link.DefaultThreshold,
			ContainScore: link.DefaultContainScore,
		},
		View: ViewConfig{
			VisibleThreshold: timeline.DefaultThreshold,
			CooldownMillis:   int(nav.DefaultCooldown.Milliseconds()),
			MinNavWidth:      nav.DefaultMinWidth,
		},
		Expand:   ExpandConfig{HorizonDays: 365, MaxPerEvent: 100},
		LogLevel: "info",
	}
	cfg.Tables.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	c.Mode = string(timeline.ParseMode(c.Mode))
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.RecapDir == "" {
		c.RecapDir = def.RecapDir
	}
	c.Tables.Normalize()
	if c.Link.Threshold <= 0 || c.Link.Threshold > 1 {
		c.Link.Threshold = def.Link.Threshold
	}
	if c.Link.ContainScore <= 0 || c.Link.ContainScore > 1 {
		c.Link.ContainScore = def.Link.ContainScore
	}
	if c.View.VisibleThreshold <= 0 || c.View.VisibleThreshold > 1 {
		c.View.VisibleThreshold = def.View.VisibleThreshold
	}
	if c.View.CooldownMillis <= 0 {
		c.View.CooldownMillis = def.View.CooldownMillis
	}
	if c.View.MinNavWidth <= 0 {
		c.View.MinNavWidth = def.View.MinNavWidth
	}
	if c.Expand.HorizonDays <= 0 {
		c.Expand.HorizonDays = def.Expand.HorizonDays
	}
	if c.Expand.MaxPerEvent <= 0 {
		c.Expand.MaxPerEvent = def.Expand.MaxPerEvent
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Load loads configuration from the given YAML path. If the file does
// not exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".civicline-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// DataFile is the JSON event file. Relative paths are resolved against
	// the directory of the config file.
	DataFile string `yaml:"data_file"`

	// LogFile receives log output while the terminal UI owns the screen.
	// Empty disables logging during the UI session.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// HorizonYears is how far past today recurring events are expanded.
	HorizonYears int `yaml:"horizon_years"`

	// MaxOccurrencesPerEvent caps the expansion of a single template.
	MaxOccurrencesPerEvent int `yaml:"max_occurrences_per_event"`

	// WeekStart controls which weekday starts the week view. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start"`

	// DefaultView is the view mode at startup: all, week, month or year.
	DefaultView string `yaml:"default_view"`

	UpcomingOnly  bool `yaml:"upcoming_only"`
	SortAscending bool `yaml:"sort_ascending"`

	// Palette maps event color names to terminal colors (ANSI numbers or
	// #rrggbb).
	Palette map[string]string `yaml:"palette"`
}

// DefaultPalette returns the built-in color names.
func DefaultPalette() map[string]string {
	return map[string]string{
		"red":     "9",
		"green":   "10",
		"blue":    "12",
		"yellow":  "11",
		"cyan":    "14",
		"magenta": "13",
		"gray":    "8",
		"white":   "15",
		"orange":  "#ff8700",
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataFile:               "events.json",
		LogFile:                "calplan.log",
		LogLevel:               "info",
		HorizonYears:           5,
		MaxOccurrencesPerEvent: 50000,
		WeekStart:              "monday",
		DefaultView:            "all",
		UpcomingOnly:           false,
		SortAscending:          true,
		Palette:                DefaultPalette(),
	}
}

// DefaultPath is config.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "calplan", "config.yaml"), nil
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.DataFile == "" {
		c.DataFile = "events.json"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.HorizonYears <= 0 {
		c.HorizonYears = 5
	}
	if c.MaxOccurrencesPerEvent <= 0 {
		c.MaxOccurrencesPerEvent = 50000
	}

	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		// Unknown value; fall back to monday.
		c.WeekStart = "monday"
	}

	c.DefaultView = strings.ToLower(strings.TrimSpace(c.DefaultView))
	switch c.DefaultView {
	case "all", "week", "month", "year":
	default:
		c.DefaultView = "all"
	}

	if c.Palette == nil {
		c.Palette = DefaultPalette()
	}
	// Event colors match case-insensitively.
	palette := make(map[string]string, len(c.Palette))
	for name, color := range c.Palette {
		palette[strings.ToLower(strings.TrimSpace(name))] = color
	}
	c.Palette = palette
}

// Weekday returns WeekStart as a time.Weekday.
func (c *Config) Weekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Resolve returns p unchanged when absolute, otherwise joined with the
// directory of the config file at cfgPath.
func Resolve(cfgPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(cfgPath), p)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded and normalized. Keys missing from the
//     file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Palette = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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

	tmp, err := os.CreateTemp(dir, ".calplan-config-*.tmp")
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

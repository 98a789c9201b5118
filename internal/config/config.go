package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	WeekStartSunday = "sunday"
	WeekStartMonday = "monday"

	DayOrderInsertion     = "insertion"
	DayOrderChronological = "chronological"

	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Local"
	defaultCurrentUser = "u1"
	defaultCreateDelay = 800 * time.Millisecond
	defaultExportFile  = "calendar-events"
	defaultExportDir   = "./var/exports"
	defaultLogLevel    = "info"
)

// ICSConfig describes a single ICS seed source.
type ICSConfig struct {
	// URL is an http(s) endpoint or a local file path.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging and event IDs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// ExportConfig controls CSV export destinations.
type ExportConfig struct {
	// Dir is where scheduled exports are written.
	Dir string `yaml:"dir" json:"dir"`
	// Filename is the base name, without the .csv extension.
	Filename string `yaml:"filename" json:"filename"`
	// Cron is a cron spec for periodic exports. Empty disables them.
	Cron string `yaml:"cron" json:"cron"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the dashboard API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone in which dates and times are interpreted.
	// "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// DayOrder is "insertion" (default) or "chronological" ordering of events
	// within a grid cell.
	DayOrder string `yaml:"day_order" json:"day_order"`

	// CurrentUser is the actor used when a request does not name one.
	CurrentUser string `yaml:"current_user" json:"current_user"`

	// CreateDelay is the artificial latency of the creation workflow.
	CreateDelay time.Duration `yaml:"create_delay" json:"create_delay"`

	// StrictTimes rejects events whose end is before their start.
	StrictTimes bool `yaml:"strict_times" json:"strict_times"`

	// SeedMock loads the built-in demo events at startup.
	SeedMock bool `yaml:"seed_mock" json:"seed_mock"`

	// ICS is the list of seed sources loaded at startup.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Export ExportConfig `yaml:"export" json:"export"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		Timezone:    defaultTimezone,
		WeekStart:   WeekStartSunday,
		DayOrder:    DayOrderInsertion,
		CurrentUser: defaultCurrentUser,
		CreateDelay: defaultCreateDelay,
		SeedMock:    true,
		ICS:         []ICSConfig{},
		Export: ExportConfig{
			Dir:      defaultExportDir,
			Filename: defaultExportFile,
		},
		LogLevel: defaultLogLevel,
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.WeekStart {
	case WeekStartSunday, WeekStartMonday:
	default:
		c.WeekStart = WeekStartSunday
	}
	switch c.DayOrder {
	case DayOrderInsertion, DayOrderChronological:
	default:
		c.DayOrder = DayOrderInsertion
	}
	if c.CurrentUser == "" {
		c.CurrentUser = defaultCurrentUser
	}
	// Zero is a valid delay (tests, scripted use); only negatives are reset.
	if c.CreateDelay < 0 {
		c.CreateDelay = defaultCreateDelay
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaultExportDir
	}
	if c.Export.Filename == "" {
		c.Export.Filename = defaultExportFile
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Location resolves Timezone. Unknown zones are reported as an error so the
// caller can decide whether to fall back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == defaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FirstWeekday maps WeekStart to a time.Weekday.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == WeekStartMonday {
		return time.Monday
	}
	return time.Sunday
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written there with 0600
// permissions and returned. When that write fails the defaults are still
// returned together with the error.
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

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".crmcal-config-*.tmp")
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

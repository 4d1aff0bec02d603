// Package config handles configuration loading and validation for sheetr.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/sheetr/internal/timesheet"
)

// Config holds the application configuration.
type Config struct {
	User     UserConfig     `yaml:"user"`
	Rules    RulesConfig    `yaml:"rules"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// UserConfig identifies who the timesheet belongs to.
type UserConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RulesConfig holds the validation thresholds.
type RulesConfig struct {
	MinDescriptionLength int     `yaml:"min_description_length"`
	MaxEntryHours        float64 `yaml:"max_entry_hours"`
	OvertimeThreshold    float64 `yaml:"overtime_threshold"`
	HighHoursPerDay      float64 `yaml:"high_hours_per_day"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`           // defaults to <data-dir>/sheetr.db
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"` // empty = working directory
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	r := timesheet.DefaultRules()
	return Config{
		User: UserConfig{
			ID: currentUser(),
		},
		Rules: RulesConfig{
			MinDescriptionLength: r.MinDescriptionLength,
			MaxEntryHours:        r.MaxEntryHours.InexactFloat64(),
			OvertimeThreshold:    r.OvertimeThreshold.InexactFloat64(),
			HighHoursPerDay:      r.HighHoursPerDay.InexactFloat64(),
		},
		Database: DatabaseConfig{
			BusyTimeoutMS: 5000,
		},
	}
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.User.ID == "" {
		c.User.ID = defaults.User.ID
	}
	if c.User.Name == "" {
		c.User.Name = c.User.ID
	}
	if c.Rules.MinDescriptionLength == 0 {
		c.Rules.MinDescriptionLength = defaults.Rules.MinDescriptionLength
	}
	if c.Rules.MaxEntryHours == 0 {
		c.Rules.MaxEntryHours = defaults.Rules.MaxEntryHours
	}
	if c.Rules.OvertimeThreshold == 0 {
		c.Rules.OvertimeThreshold = defaults.Rules.OvertimeThreshold
	}
	if c.Rules.HighHoursPerDay == 0 {
		c.Rules.HighHoursPerDay = defaults.Rules.HighHoursPerDay
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = defaults.Database.BusyTimeoutMS
	}
	if c.Database.Path == "" && c.DataDir != "" {
		c.Database.Path = filepath.Join(c.DataDir, "sheetr.db")
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("user.id", c.User.ID, userID),
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("rules.min_description_length", c.Rules.MinDescriptionLength, func(n int) error {
			if n < 1 {
				return errors.New("must be at least 1")
			}
			return nil
		}),
		criterio.Run("rules.max_entry_hours", c.Rules.MaxEntryHours, between(0, 24)),
		criterio.Run("rules.overtime_threshold", c.Rules.OvertimeThreshold, between(0, 168)),
		criterio.Run("rules.high_hours_per_day", c.Rules.HighHoursPerDay, between(0, 24)),
		criterio.Run("database.busy_timeout_ms", c.Database.BusyTimeoutMS, func(ms int) error {
			if ms < 0 {
				return errors.New("cannot be negative")
			}
			return nil
		}),
	)
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func userID(s string) error {
	if err := notEmpty(s); err != nil {
		return err
	}
	if strings.ContainsAny(s, ", \t\n") {
		return errors.New("cannot contain commas or whitespace")
	}
	return nil
}

// between accepts values in (lo, hi].
func between(lo, hi float64) func(float64) error {
	return func(v float64) error {
		if v <= lo || v > hi {
			return fmt.Errorf("must be greater than %g and at most %g", lo, hi)
		}
		return nil
	}
}

// TimesheetRules converts the configured thresholds.
func (c *Config) TimesheetRules() timesheet.Rules {
	return timesheet.Rules{
		MinDescriptionLength: c.Rules.MinDescriptionLength,
		MaxEntryHours:        decimal.NewFromFloat(c.Rules.MaxEntryHours),
		OvertimeThreshold:    decimal.NewFromFloat(c.Rules.OvertimeThreshold),
		HighHoursPerDay:      decimal.NewFromFloat(c.Rules.HighHoursPerDay),
	}
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "sheetr.log")
}

// ExportDir returns the directory exports are written to.
func (c *Config) ExportDir() string {
	if c.Export.Dir == "" {
		return "."
	}
	return c.Export.Dir
}

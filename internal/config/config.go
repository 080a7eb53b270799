//-------------------------------------------------------------------------
//
// Global Retail ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for globalretail-etl.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DateLayout is the layout used for calendar range values in config files.
const DateLayout = "2006-01-02"

// Config holds all configuration for globalretail-etl.
type Config struct {
	// Source is the transactional database the pipeline extracts from.
	Source ConnConfig `mapstructure:"source"`

	// Target is the warehouse database the pipeline loads into.
	Target ConnConfig `mapstructure:"target"`

	// AdminConnection is used to drop and create the source and target
	// databases. Only required when RecreateDatabases is set.
	AdminConnection string `mapstructure:"admin_connection"`

	// RecreateDatabases drops and recreates both databases before a full run.
	RecreateDatabases bool `mapstructure:"recreate_databases"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn error"`

	// LogPretty selects console output instead of JSON lines.
	LogPretty bool `mapstructure:"log_pretty"`

	// Scripts holds paths to the SQL scripts handed to the script runner.
	Scripts ScriptsConfig `mapstructure:"scripts"`

	// Load holds loader tuning.
	Load LoadConfig `mapstructure:"load"`

	// Connect holds connection retry settings.
	Connect ConnectConfig `mapstructure:"connect"`

	// Seed holds settings for the synthetic source generator.
	Seed SeedConfig `mapstructure:"seed"`
}

// ConnConfig describes a single PostgreSQL connection.
type ConnConfig struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`
}

// ScriptsConfig holds script file paths. An empty path selects the
// built-in script (or the synthetic generator for SourceSeed).
type ScriptsConfig struct {
	SourceSchema     string `mapstructure:"source_schema"`
	SourceSeed       string `mapstructure:"source_seed"`
	WarehouseSchema  string `mapstructure:"warehouse_schema"`
	WarehouseIndexes string `mapstructure:"warehouse_indexes"`
}

// LoadConfig holds loader settings.
type LoadConfig struct {
	// FactBatchSize is the number of fact rows per commit.
	FactBatchSize int `mapstructure:"fact_batch_size" validate:"gte=1"`

	// ScriptProgressInterval is how often (in statements) the script
	// runner logs progress in per-statement mode.
	ScriptProgressInterval int `mapstructure:"script_progress_interval" validate:"gte=1"`

	// CacheKeys enables the in-memory surrogate key cache.
	CacheKeys bool `mapstructure:"cache_keys"`

	// DateFormats lists accepted sale date formats: iso, dmy.
	DateFormats []string `mapstructure:"date_formats" validate:"min=1,dive,oneof=iso dmy"`

	// CalendarStart and CalendarEnd bound the generated calendar (inclusive).
	CalendarStart string `mapstructure:"calendar_start" validate:"datetime=2006-01-02"`
	CalendarEnd   string `mapstructure:"calendar_end" validate:"datetime=2006-01-02"`
}

// ConnectConfig controls how connection attempts are retried.
type ConnectConfig struct {
	// Retries is the number of additional attempts after the first.
	Retries int `mapstructure:"retries" validate:"gte=0,lte=20"`

	// RetryIntervalSeconds is the pause between attempts.
	RetryIntervalSeconds int `mapstructure:"retry_interval_seconds" validate:"gte=0"`
}

// SeedConfig controls synthetic source data generation.
type SeedConfig struct {
	// Scale multiplies the base row counts of the generator.
	Scale int `mapstructure:"scale" validate:"gte=1"`

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		RecreateDatabases: true,
		LogLevel:          "info",
		LogPretty:         true,
		Load: LoadConfig{
			FactBatchSize:          1000,
			ScriptProgressInterval: 10,
			CacheKeys:              false,
			DateFormats:            []string{"iso", "dmy"},
			CalendarStart:          "2020-01-01",
			CalendarEnd:            "2025-12-31",
		},
		Connect: ConnectConfig{
			Retries:              3,
			RetryIntervalSeconds: 2,
		},
		Seed: SeedConfig{
			Scale: 1,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./globalretail-etl.yaml
// 3. ~/.config/globalretail-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("globalretail-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "globalretail-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks field-level constraints shared by every command.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	start, end, err := c.CalendarRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("calendar_end must not be before calendar_start")
	}
	return nil
}

// ValidateRun checks configuration required for a full pipeline run.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source.Connection == "" {
		return fmt.Errorf("source connection string is required")
	}
	if c.Target.Connection == "" {
		return fmt.Errorf("target connection string is required")
	}
	if c.RecreateDatabases && c.AdminConnection == "" {
		return fmt.Errorf("admin_connection is required when recreate_databases is enabled")
	}
	return nil
}

// ValidateLoad checks configuration required to run individual loaders.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source.Connection == "" {
		return fmt.Errorf("source connection string is required")
	}
	if c.Target.Connection == "" {
		return fmt.Errorf("target connection string is required")
	}
	return nil
}

// ValidateSeed checks configuration required by the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source.Connection == "" {
		return fmt.Errorf("source connection string is required")
	}
	if c.RecreateDatabases && c.AdminConnection == "" {
		return fmt.Errorf("admin_connection is required when recreate_databases is enabled")
	}
	return nil
}

// ValidateSummary checks configuration required by the summary command.
func (c *Config) ValidateSummary() error {
	if c.Target.Connection == "" {
		return fmt.Errorf("target connection string is required")
	}
	return nil
}

// CalendarRange parses the configured calendar bounds.
func (c *Config) CalendarRange() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.Load.CalendarStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar_start: %w", err)
	}
	end, err := time.Parse(DateLayout, c.Load.CalendarEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid calendar_end: %w", err)
	}
	return start, end, nil
}

// RetryInterval returns the connection retry pause as a duration.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Connect.RetryIntervalSeconds) * time.Second
}

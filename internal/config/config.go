// Package config provides unified configuration loading for barw.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jhsa24/randomwalk/internal/backup"
	"github.com/jhsa24/randomwalk/internal/constants"
	"github.com/jhsa24/randomwalk/internal/engine"
	"github.com/jhsa24/randomwalk/internal/pathutil"
	"github.com/jhsa24/randomwalk/internal/store"
)

// FileName is the config file looked up inside a data directory.
const FileName = "config.yaml"

// Config contains all barw configuration settings.
type Config struct {
	// Simulation describes the run: budget, radius, distributions, somas.
	Simulation Simulation `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Storage selects where collections are saved.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Backup controls archive retention.
	Backup BackupConfig `json:"backup" yaml:"backup"`
}

// LoggingConfig configures barw's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables walker event logging to .barw/events.jsonl.
	// "trace" additionally records event positions.
	Level string `json:"level" yaml:"level"`
}

// StorageConfig configures collection persistence.
type StorageConfig struct {
	// Backend is "sqlite" (default) or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// Scope is "local" (<root>/.barw, default) or "global" (~/.barw).
	Scope string `json:"scope" yaml:"scope"`
}

// BackupConfig configures which archives `barw backup` keeps in its
// directory. An archive survives if any configured limit keeps it.
type BackupConfig struct {
	Keep    int    `json:"keep" yaml:"keep"`
	MaxAge  string `json:"max_age,omitempty" yaml:"max_age,omitempty"`
	MaxSize string `json:"max_size,omitempty" yaml:"max_size,omitempty"`
}

// Policy builds the retention policy described by c.
func (c BackupConfig) Policy() (backup.RetentionPolicy, error) {
	var policies backup.AnyPolicy
	if c.Keep > 0 {
		policies = append(policies, &backup.CountPolicy{MaxCount: c.Keep})
	}
	if c.MaxAge != "" {
		d, err := backup.ParseDuration(c.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("backup.max_age: %w", err)
		}
		policies = append(policies, &backup.AgePolicy{MaxAge: d})
	}
	if c.MaxSize != "" {
		n, err := backup.ParseSize(c.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("backup.max_size: %w", err)
		}
		policies = append(policies, &backup.SizePolicy{MaxTotalBytes: n})
	}
	if len(policies) == 0 {
		return nil, nil
	}
	return policies, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: DefaultSimulation(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Backend: store.BackendSQLite,
			Scope:   string(constants.ScopeLocal),
		},
		Backup: BackupConfig{
			Keep: constants.MaxArchiveRotation,
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> explicit path, else <projectRoot>/.barw/config.yaml, else
// ~/.barw/config.yaml -> environment variables.
func Load(projectRoot, explicitPath string) (*Config, error) {
	config := Default()

	path := explicitPath
	if path == "" {
		path = findConfigFile(projectRoot)
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

func findConfigFile(projectRoot string) string {
	var candidates []string
	if projectRoot != "" {
		candidates = append(candidates, filepath.Join(projectRoot, pathutil.DataDirName, FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, pathutil.DataDirName, FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes c as YAML to path, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ToYAML renders c in the config file format.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Validate checks that the configuration is valid. Every failure wraps
// engine.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: invalid log level: %s (valid: info, debug, trace, or empty for default)",
			engine.ErrInvalidConfig, c.Logging.Level)
	}

	switch c.Storage.Backend {
	case "", store.BackendSQLite, store.BackendMemory:
	default:
		return fmt.Errorf("%w: invalid storage backend: %s (valid: sqlite, memory)",
			engine.ErrInvalidConfig, c.Storage.Backend)
	}
	if _, err := constants.ParseScope(c.Storage.Scope); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrInvalidConfig, err)
	}

	if c.Backup.Keep < 0 {
		return fmt.Errorf("%w: backup.keep must be non-negative, got %d", engine.ErrInvalidConfig, c.Backup.Keep)
	}
	if _, err := c.Backup.Policy(); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrInvalidConfig, err)
	}
	return nil
}

// LogLevel returns the configured level with the default applied.
func (c *Config) LogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return c.Logging.Level
}

var errEnv = errors.New("invalid environment override")

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) error {
	sim := &config.Simulation

	ints := []struct {
		name string
		dst  *int
	}{
		{"BARW_STEPS", &sim.Steps},
		{"BARW_SAMPLES", &sim.Samples},
		{"BARW_WORKERS", &sim.Workers},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", errEnv, e.name, v)
			}
			*e.dst = n
		}
	}

	if v := os.Getenv("BARW_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: BARW_SEED=%q", errEnv, v)
		}
		sim.Seed = n
	}

	if v := os.Getenv("BARW_RADIUS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: BARW_RADIUS=%q", errEnv, v)
		}
		sim.Radius = f
	}

	if v := os.Getenv("BARW_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("BARW_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	return nil
}

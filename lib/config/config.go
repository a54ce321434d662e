// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable [Load] reads the config path
// from.
const EnvVar = "SWITCHAGENT_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for lab switches and local simulation.
	Development Environment = "development"
	// Staging is for canary switches.
	Staging Environment = "staging"
	// Production is for switches carrying production traffic.
	Production Environment = "production"
)

// Config is the runtime configuration of the switch agent.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures file and directory locations.
	Paths PathsConfig `yaml:"paths"`

	// WarmBoot configures the warm-restart state file.
	WarmBoot WarmBootConfig `yaml:"warm_boot"`

	// Journal configures the published-state journal.
	Journal JournalConfig `yaml:"journal"`

	// Updates configures the state update executor.
	Updates UpdatesConfig `yaml:"updates"`

	// Logging configures the agent logger.
	Logging LoggingConfig `yaml:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig    `yaml:"paths,omitempty"`
	WarmBoot *WarmBootConfig `yaml:"warm_boot,omitempty"`
	Journal  *JournalConfig  `yaml:"journal,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// PathsConfig configures file and directory locations.
type PathsConfig struct {
	// Root is the base directory for agent data.
	Root string `yaml:"root"`

	// State is the warm-boot directory. It holds the state file and the
	// lock that keeps a second agent from writing it.
	State string `yaml:"state"`

	// Journal is the SQLite database of published generations.
	Journal string `yaml:"journal"`

	// SwitchConfig is the JSONC desired switch configuration.
	SwitchConfig string `yaml:"switch_config"`
}

// WarmBootConfig configures the warm-restart state file.
type WarmBootConfig struct {
	// Enabled controls whether state is restored on start and saved on
	// shutdown.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Compression is the payload compression: zstd, lz4, or none.
	// Default: zstd
	Compression string `yaml:"compression"`

	// Encoding is the payload encoding: cbor or json.
	// Default: cbor
	Encoding string `yaml:"encoding"`

	// SnapshotInterval is how often the current state is saved while
	// running, in addition to on shutdown. Empty or "0" disables
	// periodic snapshots.
	// Default: 5m
	SnapshotInterval string `yaml:"snapshot_interval"`
}

// JournalConfig configures the published-state journal.
type JournalConfig struct {
	// Enabled controls whether published generations are recorded.
	// Default: false (development), true (production)
	Enabled bool `yaml:"enabled"`

	// Keep is how many of the newest generations survive pruning.
	// Default: 100
	Keep int `yaml:"keep"`

	// PoolSize is the number of SQLite connections.
	// Default: 2
	PoolSize int `yaml:"pool_size"`
}

// UpdatesConfig configures the state update executor.
type UpdatesConfig struct {
	// QueueDepth bounds the number of updates waiting for the writer.
	// Default: 64
	QueueDepth int `yaml:"queue_depth"`
}

// LoggingConfig configures the agent logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text, json, or auto (text on a terminal, json otherwise).
	// Default: auto
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	defaultRoot := "/var/lib/switchagent"

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:         defaultRoot,
			State:        filepath.Join(defaultRoot, "warmboot"),
			Journal:      filepath.Join(defaultRoot, "journal.db"),
			SwitchConfig: "/etc/switchagent/switch.jsonc",
		},
		WarmBoot: WarmBootConfig{
			Enabled:          true,
			Compression:      "zstd",
			Encoding:         "cbor",
			SnapshotInterval: "5m",
		},
		Journal: JournalConfig{
			Enabled:  false,
			Keep:     100,
			PoolSize: 2,
		},
		Updates: UpdatesConfig{
			QueueDepth: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the SWITCHAGENT_CONFIG environment
// variable. There is no fallback: if it is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your switchagent.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: a restart must never lose state, and the
		// journal is kept for postmortems.
		if overrides == nil {
			overrides = &ConfigOverrides{
				WarmBoot: &WarmBootConfig{
					Enabled: true,
				},
				Journal: &JournalConfig{
					Enabled: true,
					Keep:    1000,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
		if overrides.Paths.Journal != "" {
			c.Paths.Journal = overrides.Paths.Journal
		}
		if overrides.Paths.SwitchConfig != "" {
			c.Paths.SwitchConfig = overrides.Paths.SwitchConfig
		}
	}

	if overrides.WarmBoot != nil {
		// Enabled is a bool, so we always apply it from overrides.
		c.WarmBoot.Enabled = overrides.WarmBoot.Enabled
		if overrides.WarmBoot.Compression != "" {
			c.WarmBoot.Compression = overrides.WarmBoot.Compression
		}
		if overrides.WarmBoot.Encoding != "" {
			c.WarmBoot.Encoding = overrides.WarmBoot.Encoding
		}
		if overrides.WarmBoot.SnapshotInterval != "" {
			c.WarmBoot.SnapshotInterval = overrides.WarmBoot.SnapshotInterval
		}
	}

	if overrides.Journal != nil {
		c.Journal.Enabled = overrides.Journal.Enabled
		if overrides.Journal.Keep != 0 {
			c.Journal.Keep = overrides.Journal.Keep
		}
		if overrides.Journal.PoolSize != 0 {
			c.Journal.PoolSize = overrides.Journal.PoolSize
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"SWITCHAGENT_ROOT": c.Paths.Root,
		"HOME":             os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["SWITCHAGENT_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Journal = expandVars(c.Paths.Journal, vars)
	c.Paths.SwitchConfig = expandVars(c.Paths.SwitchConfig, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// SnapshotInterval parses WarmBoot.SnapshotInterval. Zero means periodic
// snapshots are disabled.
func (c *Config) SnapshotInterval() (time.Duration, error) {
	if c.WarmBoot.SnapshotInterval == "" {
		return 0, nil
	}
	interval, err := time.ParseDuration(c.WarmBoot.SnapshotInterval)
	if err != nil {
		return 0, fmt.Errorf("warm_boot.snapshot_interval: %w", err)
	}
	return interval, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.WarmBoot.Enabled && c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required when warm_boot is enabled"))
	}
	if c.Journal.Enabled && c.Paths.Journal == "" {
		errs = append(errs, fmt.Errorf("paths.journal is required when journal is enabled"))
	}

	compressions := []string{"zstd", "lz4", "none"}
	if !slices.Contains(compressions, c.WarmBoot.Compression) {
		errs = append(errs, fmt.Errorf("warm_boot.compression must be one of: %v", compressions))
	}
	encodings := []string{"cbor", "json"}
	if !slices.Contains(encodings, c.WarmBoot.Encoding) {
		errs = append(errs, fmt.Errorf("warm_boot.encoding must be one of: %v", encodings))
	}
	if interval, err := c.SnapshotInterval(); err != nil {
		errs = append(errs, err)
	} else if interval < 0 {
		errs = append(errs, fmt.Errorf("warm_boot.snapshot_interval must not be negative"))
	}

	if c.Journal.Keep < 1 {
		errs = append(errs, fmt.Errorf("journal.keep must be at least 1"))
	}
	if c.Journal.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("journal.pool_size must be at least 1"))
	}
	if c.Updates.QueueDepth < 1 {
		errs = append(errs, fmt.Errorf("updates.queue_depth must be at least 1"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}
	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the configured directories if they don't exist.
// Warm-boot state holds the whole forwarding configuration, so its
// directory is private to the agent.
func (c *Config) EnsurePaths() error {
	if c.Paths.Root != "" {
		if err := os.MkdirAll(c.Paths.Root, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", c.Paths.Root, err)
		}
	}
	if c.Paths.State != "" {
		if err := os.MkdirAll(c.Paths.State, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", c.Paths.State, err)
		}
	}
	if c.Paths.Journal != "" {
		directory := filepath.Dir(c.Paths.Journal)
		if err := os.MkdirAll(directory, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "switchagent.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if !cfg.WarmBoot.Enabled || cfg.WarmBoot.Compression != "zstd" || cfg.WarmBoot.Encoding != "cbor" {
		t.Errorf("unexpected warm boot defaults: %+v", cfg.WarmBoot)
	}

	if cfg.Journal.Enabled {
		t.Error("expected journal disabled for development")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when SWITCHAGENT_CONFIG not set, got nil")
	}

	expectedMsg := "SWITCHAGENT_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
paths:
  root: /test/root
`)
	t.Setenv(EnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

paths:
  root: /custom/root
  switch_config: /custom/switch.jsonc

warm_boot:
  enabled: false
  compression: lz4
  encoding: json
  snapshot_interval: 30s

journal:
  enabled: true
  keep: 10

logging:
  level: debug
  format: json
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.SwitchConfig != "/custom/switch.jsonc" {
		t.Errorf("expected switch_config=/custom/switch.jsonc, got %s", cfg.Paths.SwitchConfig)
	}

	if cfg.WarmBoot.Enabled {
		t.Error("expected warm_boot.enabled=false")
	}

	if cfg.WarmBoot.Compression != "lz4" || cfg.WarmBoot.Encoding != "json" {
		t.Errorf("expected lz4/json, got %s/%s", cfg.WarmBoot.Compression, cfg.WarmBoot.Encoding)
	}

	interval, err := cfg.SnapshotInterval()
	if err != nil || interval != 30*time.Second {
		t.Errorf("SnapshotInterval() = %v, %v; want 30s", interval, err)
	}

	if !cfg.Journal.Enabled || cfg.Journal.Keep != 10 {
		t.Errorf("unexpected journal config: %+v", cfg.Journal)
	}

	// Unset fields keep their defaults.
	if cfg.Journal.PoolSize != 2 {
		t.Errorf("expected pool_size default 2, got %d", cfg.Journal.PoolSize)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("missing file: expected not-exist error, got %v", err)
	}

	configPath := writeConfig(t, "paths: [not, a, mapping]\n")
	if _, err := LoadFile(configPath); err == nil {
		t.Error("malformed file: expected error")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

paths:
  root: /default/root

warm_boot:
  compression: zstd

production:
  paths:
    root: /prod/root
  warm_boot:
    enabled: true
    compression: none
  journal:
    enabled: true
    keep: 5000
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}

	if cfg.WarmBoot.Compression != "none" {
		t.Errorf("expected compression=none from production override, got %s", cfg.WarmBoot.Compression)
	}

	if !cfg.Journal.Enabled || cfg.Journal.Keep != 5000 {
		t.Errorf("unexpected journal config: %+v", cfg.Journal)
	}
}

func TestProductionDefaultsWithoutOverrideSection(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
warm_boot:
  enabled: false
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !cfg.WarmBoot.Enabled {
		t.Error("production must force warm boot on")
	}
	if !cfg.Journal.Enabled || cfg.Journal.Keep != 1000 {
		t.Errorf("unexpected production journal defaults: %+v", cfg.Journal)
	}
}

func TestRootExpansion(t *testing.T) {
	t.Setenv("SWITCHAGENT_TEST_ROOT", "")
	configPath := writeConfig(t, `
paths:
  root: ${SWITCHAGENT_TEST_ROOT:-/srv/agent}
  state: ${SWITCHAGENT_ROOT}/warmboot
  journal: ${SWITCHAGENT_ROOT}/journal.db
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/srv/agent" {
		t.Errorf("expected root=/srv/agent, got %s", cfg.Paths.Root)
	}
	if cfg.Paths.State != "/srv/agent/warmboot" {
		t.Errorf("expected state=/srv/agent/warmboot, got %s", cfg.Paths.State)
	}
	if cfg.Paths.Journal != "/srv/agent/journal.db" {
		t.Errorf("expected journal=/srv/agent/journal.db, got %s", cfg.Paths.Journal)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/switchagent",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/switchagent",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty root path",
			modify: func(c *Config) {
				c.Paths.Root = ""
			},
			wantErr: true,
		},
		{
			name: "warm boot without state path",
			modify: func(c *Config) {
				c.Paths.State = ""
			},
			wantErr: true,
		},
		{
			name: "state path not needed when warm boot disabled",
			modify: func(c *Config) {
				c.WarmBoot.Enabled = false
				c.Paths.State = ""
			},
			wantErr: false,
		},
		{
			name: "invalid compression",
			modify: func(c *Config) {
				c.WarmBoot.Compression = "gzip"
			},
			wantErr: true,
		},
		{
			name: "invalid snapshot interval",
			modify: func(c *Config) {
				c.WarmBoot.SnapshotInterval = "soon"
			},
			wantErr: true,
		},
		{
			name: "journal keep zero",
			modify: func(c *Config) {
				c.Journal.Keep = 0
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "switchagent")
	cfg.Paths.State = filepath.Join(cfg.Paths.Root, "warmboot")
	cfg.Paths.Journal = filepath.Join(cfg.Paths.Root, "db", "journal.db")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Root, cfg.Paths.State, filepath.Dir(cfg.Paths.Journal)} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}

	info, err := os.Stat(cfg.Paths.State)
	if err == nil && info.Mode().Perm() != 0700 {
		t.Errorf("state directory mode = %o, want 0700", info.Mode().Perm())
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			cfg := Global()
			if cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}

	if cfg.Version == "" {
		t.Error("Config version should not be empty")
	}
	if cfg.Session.WarningLeadSecs == 0 {
		t.Error("Warning lead should not be zero")
	}
}

// TestConfig_SetGlobalOverwrites tests that SetGlobal properly overwrites
// the existing global config.
func TestConfig_SetGlobalOverwrites(t *testing.T) {
	ResetGlobalForTesting()

	_ = Global()

	customCfg := Default()
	customCfg.Version = "custom-version"
	SetGlobal(customCfg)

	result := Global()
	if result.Version != "custom-version" {
		t.Errorf("Expected version 'custom-version', got '%s'", result.Version)
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Server.URL == "" {
		t.Error("Default config should have a server URL")
	}
	if cfg.Session.WarningLeadSecs != 60 {
		t.Errorf("Expected 60 second warning lead, got %d", cfg.Session.WarningLeadSecs)
	}
	if cfg.Session.PollIntervalSecs != 10 {
		t.Errorf("Expected 10 second poll interval, got %d", cfg.Session.PollIntervalSecs)
	}
	if cfg.Session.IdleTimeoutMinutes != 0 {
		t.Error("Default idle timeout must follow server policy (0)")
	}
	if !cfg.Security.AuditEnabled {
		t.Error("Audit logging should be enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing server url",
			mutate:  func(c *Config) { c.Server.URL = "" },
			wantErr: true,
		},
		{
			name:    "malformed server url",
			mutate:  func(c *Config) { c.Server.URL = "not a url" },
			wantErr: true,
		},
		{
			name:    "request timeout too large",
			mutate:  func(c *Config) { c.Server.RequestTimeoutSecs = 500 },
			wantErr: true,
		},
		{
			name:    "negative idle override",
			mutate:  func(c *Config) { c.Session.IdleTimeoutMinutes = -1 },
			wantErr: true,
		},
		{
			name:    "idle override above a day",
			mutate:  func(c *Config) { c.Session.IdleTimeoutMinutes = 2000 },
			wantErr: true,
		},
		{
			name:    "warning lead too short",
			mutate:  func(c *Config) { c.Session.WarningLeadSecs = 5 },
			wantErr: true,
		},
		{
			name:    "poll interval zero",
			mutate:  func(c *Config) { c.Session.PollIntervalSecs = 0 },
			wantErr: true,
		},
		{
			name:    "throttle too aggressive",
			mutate:  func(c *Config) { c.Session.ActivityThrottleMs = 10 },
			wantErr: true,
		},
		{
			name:    "old TLS version",
			mutate:  func(c *Config) { c.Security.TLSMinVersion = "TLS1.0" },
			wantErr: true,
		},
		{
			name:    "invalid theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: true,
		},
		{
			name:    "idle override at bounds",
			mutate:  func(c *Config) { c.Session.IdleTimeoutMinutes = 1440 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("session.warning_lead_secs")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != 60 {
		t.Errorf("Get('session.warning_lead_secs') = %v, want 60", val)
	}

	err = cfg.Set("ui.theme", "light")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, _ = cfg.Get("ui.theme")
	if val != "light" {
		t.Errorf("Get('ui.theme') after Set = %v, want 'light'", val)
	}

	// String values convert to the field's type.
	err = cfg.Set("session.poll_interval_secs", "15")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, _ = cfg.Get("session.poll_interval_secs")
	if val != 15 {
		t.Errorf("Get('session.poll_interval_secs') after Set = %v, want 15", val)
	}

	_, err = cfg.Get("invalid.key")
	if err == nil {
		t.Error("Get() with invalid key should return error")
	}
}

// TestConfig_LoadFromPath round-trips a TOML file on disk.
func TestConfig_LoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[server]
url = "https://caseline.test"
request_timeout_secs = 20

[session]
warning_lead_secs = 30
poll_interval_secs = 5

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Server.URL != "https://caseline.test" {
		t.Errorf("server url = %s", cfg.Server.URL)
	}
	if cfg.Session.WarningLeadSecs != 30 {
		t.Errorf("warning lead = %d, want 30", cfg.Session.WarningLeadSecs)
	}
	// Unset fields pick up defaults.
	if cfg.Session.ActivityThrottleMs != 1000 {
		t.Errorf("throttle = %d, want default 1000", cfg.Session.ActivityThrottleMs)
	}
}

// TestConfig_EnvOverrides verifies CASELINE_* variables win over file
// values.
func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CASELINE_SERVER_URL", "https://override.test")
	t.Setenv("CASELINE_IDLE_TIMEOUT_MINUTES", "90")
	t.Setenv("CASELINE_AUDIT", "false")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.URL != "https://override.test" {
		t.Errorf("server url = %s", cfg.Server.URL)
	}
	if cfg.Session.IdleTimeoutMinutes != 90 {
		t.Errorf("idle override = %d, want 90", cfg.Session.IdleTimeoutMinutes)
	}
	if cfg.Security.AuditEnabled {
		t.Error("audit should be disabled by CASELINE_AUDIT=false")
	}
}

// TestConfig_SaveLoadRoundTrip writes with SaveTOML and reads back.
func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.UI.Theme = "light"
	cfg.Session.WarningLeadSecs = 45

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("theme = %s, want light", loaded.UI.Theme)
	}
	if loaded.Session.WarningLeadSecs != 45 {
		t.Errorf("warning lead = %d, want 45", loaded.Session.WarningLeadSecs)
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	original.Version = "original"

	clone := original.Clone()
	clone.Version = "cloned"

	if original.Version != "original" {
		t.Error("Clone should create an independent copy")
	}
	if clone.Version != "cloned" {
		t.Error("Clone version should be modified")
	}
}

func TestConfig_GetAllKeys(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

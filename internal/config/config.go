// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// caseline.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.caseline/config.toml
//   - ~/.caseline/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete caseline configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Server connection configuration
	Server ServerConfig `toml:"server" json:"server"`

	// Session lifecycle configuration
	Session SessionConfig `toml:"session" json:"session"`

	// Security configuration
	Security SecurityConfig `toml:"security" json:"security"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// ServerConfig contains remote authority connection settings.
type ServerConfig struct {
	// URL is the base URL of the Caseline server
	URL string `toml:"url" json:"url"`
	// RequestTimeoutSecs is the per-request timeout in seconds
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// SessionConfig contains session lifecycle settings.
//
// The idle timeout itself is server policy; the local override exists for
// development against servers with no policy endpoint and never extends a
// timeout the server set.
type SessionConfig struct {
	// IdleTimeoutMinutes overrides the idle timeout when the server policy
	// is disabled. 0 means follow server policy only.
	IdleTimeoutMinutes int `toml:"idle_timeout_minutes" json:"idle_timeout_minutes"`
	// WarningLeadSecs is how many seconds before expiry the warning shows
	WarningLeadSecs int `toml:"warning_lead_secs" json:"warning_lead_secs"`
	// PollIntervalSecs is the coarse idle check cadence in seconds
	PollIntervalSecs int `toml:"poll_interval_secs" json:"poll_interval_secs"`
	// ActivityThrottleMs bounds how often raw input events count as activity
	ActivityThrottleMs int `toml:"activity_throttle_ms" json:"activity_throttle_ms"`
	// RefreshIntervalMinutes is the cadence of silent credential renewal
	RefreshIntervalMinutes int `toml:"refresh_interval_minutes" json:"refresh_interval_minutes"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// AuditEnabled enables audit logging
	AuditEnabled bool `toml:"audit_enabled" json:"audit_enabled"`
	// AuditLogPath is the path to the audit log file (empty = default ~/.caseline/audit.log)
	AuditLogPath string `toml:"audit_log_path" json:"audit_log_path"`
	// TLSMinVersion is the minimum TLS version for HTTPS connections.
	// Valid values: "TLS1.2" or "TLS1.3".
	TLSMinVersion string `toml:"tls_min_version" json:"tls_min_version"`
}

// UIConfig contains UI configuration. These fields are hot-reloadable; see
// Watcher.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowStatusBar displays the status bar with session state
	ShowStatusBar bool `toml:"show_status_bar" json:"show_status_bar"`
}

// StorageConfig contains local state storage configuration.
type StorageConfig struct {
	// StatePath is the path to the UI state database (empty = default
	// ~/.caseline/state.db). Never holds credentials.
	StatePath string `toml:"state_path" json:"state_path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			URL:                "https://app.caseline.example.com",
			RequestTimeoutSecs: 15,
		},

		Session: SessionConfig{
			IdleTimeoutMinutes:     0, // follow server policy
			WarningLeadSecs:        60,
			PollIntervalSecs:       10,
			ActivityThrottleMs:     1000,
			RefreshIntervalMinutes: 10,
		},

		Security: SecurityConfig{
			AuditEnabled:  true,
			TLSMinVersion: "TLS1.2",
		},

		UI: UIConfig{
			Theme:         "dark",
			CompactMode:   false,
			ShowStatusBar: true,
		},

		Storage: StorageConfig{
			StatePath: "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the caseline configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".caseline"), nil
}

// ResolveStatePath returns the effective UI state database path,
// resolving the empty default to state.db inside the config directory.
func (c *Config) ResolveStatePath() (string, error) {
	if c.Storage.StatePath != "" {
		return c.Storage.StatePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies env overrides, defaults and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# caseline configuration file")
	fmt.Fprintln(file, "# Generated by caseline - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Validate server URL
	if c.Server.URL == "" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: "server URL is required",
		})
	} else {
		u, err := url.Parse(c.Server.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Server.URL),
			})
		}
	}

	if c.Server.RequestTimeoutSecs < 1 || c.Server.RequestTimeoutSecs > 120 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: fmt.Sprintf("must be 1-120 seconds, got %d", c.Server.RequestTimeoutSecs),
		})
	}

	// Local idle override: 0 means server policy, otherwise a sane window.
	if c.Session.IdleTimeoutMinutes < 0 || c.Session.IdleTimeoutMinutes > 1440 {
		errs = append(errs, ValidationError{
			Field:   "session.idle_timeout_minutes",
			Message: fmt.Sprintf("must be 0 (server policy) or 1-1440 minutes, got %d", c.Session.IdleTimeoutMinutes),
		})
	}

	if c.Session.WarningLeadSecs < 10 || c.Session.WarningLeadSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "session.warning_lead_secs",
			Message: fmt.Sprintf("must be 10-600 seconds, got %d", c.Session.WarningLeadSecs),
		})
	}

	if c.Session.PollIntervalSecs < 1 || c.Session.PollIntervalSecs > 60 {
		errs = append(errs, ValidationError{
			Field:   "session.poll_interval_secs",
			Message: fmt.Sprintf("must be 1-60 seconds, got %d", c.Session.PollIntervalSecs),
		})
	}

	if c.Session.ActivityThrottleMs < 100 || c.Session.ActivityThrottleMs > 10000 {
		errs = append(errs, ValidationError{
			Field:   "session.activity_throttle_ms",
			Message: fmt.Sprintf("must be 100-10000 milliseconds, got %d", c.Session.ActivityThrottleMs),
		})
	}

	if c.Session.RefreshIntervalMinutes < 1 || c.Session.RefreshIntervalMinutes > 60 {
		errs = append(errs, ValidationError{
			Field:   "session.refresh_interval_minutes",
			Message: fmt.Sprintf("must be 1-60 minutes, got %d", c.Session.RefreshIntervalMinutes),
		})
	}

	// Only TLS 1.2 and 1.3 are acceptable.
	validTLSVersions := map[string]bool{
		"1.2":    true,
		"1.3":    true,
		"TLS1.2": true,
		"TLS1.3": true,
	}
	if !validTLSVersions[c.Security.TLSMinVersion] {
		errs = append(errs, ValidationError{
			Field:   "security.tls_min_version",
			Message: fmt.Sprintf("tls_min_version must be TLS1.2 or TLS1.3, got %s", c.Security.TLSMinVersion),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = defaults.Server.RequestTimeoutSecs
	}

	if c.Session.WarningLeadSecs == 0 {
		c.Session.WarningLeadSecs = defaults.Session.WarningLeadSecs
	}
	if c.Session.PollIntervalSecs == 0 {
		c.Session.PollIntervalSecs = defaults.Session.PollIntervalSecs
	}
	if c.Session.ActivityThrottleMs == 0 {
		c.Session.ActivityThrottleMs = defaults.Session.ActivityThrottleMs
	}
	if c.Session.RefreshIntervalMinutes == 0 {
		c.Session.RefreshIntervalMinutes = defaults.Session.RefreshIntervalMinutes
	}

	if c.Security.TLSMinVersion == "" {
		c.Security.TLSMinVersion = defaults.Security.TLSMinVersion
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}

	// Normalize short TLS version strings.
	switch c.Security.TLSMinVersion {
	case "1.2":
		c.Security.TLSMinVersion = "TLS1.2"
	case "1.3":
		c.Security.TLSMinVersion = "TLS1.3"
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CASELINE_SERVER_URL: overrides server.url
//   - CASELINE_IDLE_TIMEOUT_MINUTES: overrides session.idle_timeout_minutes
//   - CASELINE_THEME: overrides ui.theme
//   - CASELINE_AUDIT: set to "0" or "false" to disable audit logging
//   - CASELINE_AUDIT_LOG: overrides security.audit_log_path
//   - CASELINE_STATE_PATH: overrides storage.state_path
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("CASELINE_SERVER_URL"); u != "" {
		c.Server.URL = u
	}

	if v := os.Getenv("CASELINE_IDLE_TIMEOUT_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil {
			c.Session.IdleTimeoutMinutes = mins
		}
	}

	if theme := os.Getenv("CASELINE_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if auditEnv := os.Getenv("CASELINE_AUDIT"); auditEnv != "" {
		c.Security.AuditEnabled = !(auditEnv == "0" || strings.ToLower(auditEnv) == "false")
	}

	if p := os.Getenv("CASELINE_AUDIT_LOG"); p != "" {
		c.Security.AuditLogPath = p
	}

	if p := os.Getenv("CASELINE_STATE_PATH"); p != "" {
		c.Storage.StatePath = p
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g.,
// "session.warning_lead_secs").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type
// conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.url",
		"server.request_timeout_secs",
		"session.idle_timeout_minutes",
		"session.warning_lead_secs",
		"session.poll_interval_secs",
		"session.activity_throttle_ms",
		"session.refresh_interval_minutes",
		"security.audit_enabled",
		"security.audit_log_path",
		"security.tls_min_version",
		"ui.theme",
		"ui.compact_mode",
		"ui.show_status_bar",
		"storage.state_path",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

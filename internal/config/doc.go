// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// caseline.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Remote authority connection settings
//   - SessionConfig: Idle timeout and renewal cadences
//   - UIConfig: Display settings, hot-reloadable via Watcher
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CASELINE_*)
//   - ~/.caseline/config.toml
//   - ~/.caseline/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	server := cfg.Server.URL
//	lead := cfg.Session.WarningLeadSecs
package config

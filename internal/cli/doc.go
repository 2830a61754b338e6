// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements argument parsing and the non-TUI commands:
// status, login, logout, config and version. The TUI itself is launched
// from main; everything here is one-shot, prints to stdout and exits.
package cli

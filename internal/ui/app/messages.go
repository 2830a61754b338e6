// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/authflow"
	"github.com/jeranaias/caseline-tui/internal/config"
	"github.com/jeranaias/caseline-tui/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// BootProbeMsg carries the result of the startup /auth/me/ probe.
type BootProbeMsg struct {
	User *session.UserProfile
	Err  error
}

// StateLoadedMsg carries UI state hydrated from the local state store.
type StateLoadedMsg struct {
	LastEmail string
}

// LoginResultMsg carries the outcome of a credentials submission.
type LoginResultMsg struct {
	Step authflow.Step
	Err  error
}

// CodeResultMsg carries the outcome of a second-factor submission.
type CodeResultMsg struct {
	Step authflow.Step
	Err  error
}

// PolicyMsg carries the idle policy fetched at session start. Err is set
// when the authority could not be consulted and Policy holds the
// conservative fallback.
type PolicyMsg struct {
	Policy api.Policy
	Err    error
}

// RefreshTickMsg fires when the silent token refresh is due.
type RefreshTickMsg struct{}

// RefreshResultMsg carries the outcome of a silent refresh attempt.
type RefreshResultMsg struct {
	OK bool
}

// LoggedOutMsg signals that the logout coordinator has finished tearing
// the session down. Reason follows the sign-out reason contract.
type LoggedOutMsg struct {
	Reason string
}

// ExpiredReturnMsg fires after the expired notice has been shown long
// enough to read, returning the user to the sign-in screen.
type ExpiredReturnMsg struct{}

// ThemeChangedMsg is sent from outside the event loop when the config
// watcher observes an edit to the UI section.
type ThemeChangedMsg struct {
	UI config.UIConfig
}

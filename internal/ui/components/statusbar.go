// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/caseline-tui/internal/idle"
	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar renders the bottom bar: identity on the left, session state
// and shortcuts on the right.
type StatusBar struct {
	width int

	userName  string
	userEmail string
	state     idle.State
	remaining int
	serverURL string

	theme *styles.Theme
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{width: 80, theme: theme}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetUser sets the signed-in identity. Empty values clear it.
func (s *StatusBar) SetUser(name, email string) {
	s.userName = name
	s.userEmail = email
}

// SetSessionState sets the idle engine state and, during a warning, the
// remaining seconds.
func (s *StatusBar) SetSessionState(state idle.State, remainingSecs int) {
	s.state = state
	s.remaining = remainingSecs
}

// SetServerURL sets the server shown on wide layouts.
func (s *StatusBar) SetServerURL(url string) {
	s.serverURL = url
}

// View renders the status bar.
func (s *StatusBar) View() string {
	left := s.renderIdentity()
	right := s.renderSession()

	if s.width >= 100 && s.serverURL != "" {
		right = s.theme.ShortcutDesc.Render(s.serverURL) + "  " + right
	}

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Narrow terminal: drop the identity rather than wrapping.
		left = truncate(left, s.width-lipgloss.Width(right)-3)
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.Width(s.width).Render(line)
}

func (s *StatusBar) renderIdentity() string {
	if s.userName == "" {
		return s.theme.ShortcutDesc.Render("not signed in")
	}
	name := s.theme.StatusOK.Render(styles.StatusIndicators.Active + " " + s.userName)
	if s.width >= 80 && s.userEmail != "" {
		return name + " " + s.theme.ShortcutDesc.Render("<"+s.userEmail+">")
	}
	return name
}

func (s *StatusBar) renderSession() string {
	switch s.state {
	case idle.StateWarning:
		return s.theme.StatusWarn.Render(
			fmt.Sprintf("%s expires in %s", styles.StatusIndicators.Warning, formatCountdown(s.remaining)))
	case idle.StateMonitoring:
		return s.theme.ShortcutKey.Render("ctrl+l") + s.theme.ShortcutDesc.Render(" sign out")
	case idle.StateExpired:
		return s.theme.FormError.Render("session expired")
	default:
		return ""
	}
}

// truncate shortens a rendered string to the given display width,
// accounting for wide runes.
func truncate(rendered string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(rendered, width, "…")
}

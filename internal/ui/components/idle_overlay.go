// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

// =============================================================================
// IDLE TIMEOUT OVERLAY
// =============================================================================

// IdleOverlay displays a warning when the session is about to expire from
// inactivity, with a live countdown, and a terminal notice once it has.
// It is purely presentational: showing, hiding and the countdown value
// are driven from outside.
type IdleOverlay struct {
	visible   bool
	expired   bool
	remaining int

	width  int
	height int
	theme  *styles.Theme
}

// NewIdleOverlay creates a hidden overlay.
func NewIdleOverlay(theme *styles.Theme) *IdleOverlay {
	return &IdleOverlay{theme: theme}
}

// SetSize sets the overlay dimensions.
func (o *IdleOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// ShowWarning displays the countdown overlay with the given remaining
// whole seconds.
func (o *IdleOverlay) ShowWarning(remainingSecs int) {
	o.visible = true
	o.expired = false
	o.remaining = remainingSecs
}

// UpdateRemaining updates the countdown.
func (o *IdleOverlay) UpdateRemaining(remainingSecs int) {
	o.remaining = remainingSecs
	if remainingSecs <= 0 {
		o.expired = true
	}
}

// ShowExpired switches the overlay to the terminal expired notice.
func (o *IdleOverlay) ShowExpired() {
	o.visible = true
	o.expired = true
	o.remaining = 0
}

// Hide hides the overlay.
func (o *IdleOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// IsVisible returns whether the overlay is currently shown.
func (o *IdleOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the expired notice is shown.
func (o *IdleOverlay) IsExpired() bool {
	return o.expired
}

// Remaining returns the displayed countdown in seconds.
func (o *IdleOverlay) Remaining() int {
	return o.remaining
}

// View renders the overlay, or "" when hidden.
func (o *IdleOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.viewExpired()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o *IdleOverlay) viewWarning() string {
	width, height, maxWidth := o.dims()

	var parts []string

	parts = append(parts, o.theme.WarningTitle.Render(
		styles.StatusIndicators.Warning+" Session Timeout Warning"))
	parts = append(parts, "")

	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(
		"You will be signed out in "+o.theme.Countdown.Render(formatCountdown(o.remaining))))
	parts = append(parts, "")

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Align(lipgloss.Center)
	parts = append(parts, hintStyle.Render("Press any key to stay signed in"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	box := o.theme.WarningBox.Width(maxWidth).Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

func (o *IdleOverlay) viewExpired() string {
	width, height, maxWidth := o.dims()

	var parts []string

	parts = append(parts, o.theme.ExpiredTitle.Render(
		styles.StatusIndicators.Error+" Session Expired"))
	parts = append(parts, "")

	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(
		"You were signed out due to inactivity."))
	parts = append(parts, "")

	exitStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Align(lipgloss.Center)
	parts = append(parts, exitStyle.Render("Returning to the sign-in screen."))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	box := o.theme.ExpiredBox.Width(maxWidth).Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

func (o *IdleOverlay) dims() (width, height, maxWidth int) {
	width = o.width
	if width == 0 {
		width = 60
	}
	height = o.height
	if height == 0 {
		height = 24
	}

	maxWidth = width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}
	return width, height, maxWidth
}

// formatCountdown formats whole seconds as M:SS for display.
func formatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

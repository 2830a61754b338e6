// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the caseline TUI.

This package defines the color palette and themed component styles used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Accent Colors

  - Cyan - Brand color for info and focused elements
  - Purple - Secondary accent for headers
  - Emerald - Success states and the authenticated indicator
  - Amber - Warnings and countdowns
  - Rose - Errors and expired sessions

## Surface and Text Colors

Layered surface system for depth and a hierarchical text color system:

	Surface      - Main background
	SurfaceDim   - Subtle backgrounds (headers, status bars)
	Overlay      - Borders and separators
	TextPrimary  - Main content text
	TextSecondary- Supporting text
	TextMuted    - De-emphasized text

# Theme System (theme.go)

The Theme struct provides runtime color adaptation and the styled
building blocks for the auth forms, the idle warning overlay and the
status bar:

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}

# Accessibility

StatusIndicators provides ASCII shape indicators ([OK], [X], [!], [i])
alongside high-contrast color pairs so states remain distinguishable for
colorblind users.
*/
package styles

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/lipgloss"
)

// View renders the active screen. The timeout overlay replaces the home
// view entirely while visible so the countdown cannot be missed.
func (m *Model) View() string {
	switch m.screen {
	case ScreenBoot:
		return m.renderCentered(m.theme.FieldHint.Render("Connecting to Caseline..."))
	case ScreenLogin:
		return m.renderCentered(m.loginForm.View())
	case ScreenTotp, ScreenRecovery:
		return m.renderCentered(m.codeInput.View())
	case ScreenHome:
		return m.renderHome()
	}
	return ""
}

func (m *Model) renderHome() string {
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	header := m.theme.Header.Width(m.contentWidth()).Render(
		m.theme.HeaderTitle.Render("Caseline") +
			m.theme.HeaderSubtitle.Render("  workspace"))

	body := m.theme.Container.
		Width(m.contentWidth()).
		Height(m.bodyHeight()).
		Render(m.theme.FieldHint.Render("Select a case to begin."))

	parts := []string{header, body}
	if m.cfg == nil || m.cfg.UI.ShowStatusBar {
		parts = append(parts, m.statusBar.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderCentered(content string) string {
	width, height := m.dims()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) dims() (int, int) {
	width := m.width
	if width == 0 {
		width = 80
	}
	height := m.height
	if height == 0 {
		height = 24
	}
	return width, height
}

func (m *Model) contentWidth() int {
	width, _ := m.dims()
	return width
}

func (m *Model) bodyHeight() int {
	_, height := m.dims()
	// Header and status bar each take a row plus container padding.
	h := height - 6
	if h < 3 {
		h = 3
	}
	return h
}

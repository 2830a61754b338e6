// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

// =============================================================================
// SECOND FACTOR INPUT COMPONENT
// =============================================================================

// CodeSubmitMsg is emitted when the user submits a second-factor code.
type CodeSubmitMsg struct {
	Code     string
	Recovery bool
}

// CodeSwitchMsg is emitted when the user toggles between authenticator
// and recovery code entry.
type CodeSwitchMsg struct {
	ToRecovery bool
}

// CodeAbandonMsg is emitted when the user backs out to the credentials
// step.
type CodeAbandonMsg struct{}

// CodeInput is the second-factor entry component. It renders either the
// 6-digit authenticator prompt or the free-form recovery code prompt; the
// flow decides what a submission means.
type CodeInput struct {
	input    textinput.Model
	recovery bool
	errMsg   string
	width    int
	theme    *styles.Theme
}

// NewCodeInput creates the component in authenticator mode.
func NewCodeInput(theme *styles.Theme) *CodeInput {
	ti := textinput.New()
	ti.Placeholder = "123456"
	ti.CharLimit = 12
	ti.Width = 20
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	ti.Focus()

	return &CodeInput{
		input: ti,
		width: 60,
		theme: theme,
	}
}

// SetRecovery switches the prompt between authenticator and recovery
// modes, clearing any typed code.
func (c *CodeInput) SetRecovery(recovery bool) {
	c.recovery = recovery
	c.input.Reset()
	c.errMsg = ""
	if recovery {
		c.input.Placeholder = "recovery code"
		c.input.CharLimit = 64
		c.input.Width = 30
	} else {
		c.input.Placeholder = "123456"
		c.input.CharLimit = 12
		c.input.Width = 20
	}
}

// Recovery reports whether recovery mode is active.
func (c *CodeInput) Recovery() bool {
	return c.recovery
}

// SetError shows an error message and clears the typed code for retry.
func (c *CodeInput) SetError(msg string) {
	c.errMsg = msg
	c.input.Reset()
}

// SetWidth sets the component width.
func (c *CodeInput) SetWidth(width int) {
	c.width = width
}

// Update handles key messages. Enter submits, ctrl+r toggles recovery
// mode, esc abandons the challenge.
func (c *CodeInput) Update(msg tea.Msg) (*CodeInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			code := c.input.Value()
			if code == "" {
				c.errMsg = "Enter a code."
				return c, nil
			}
			recovery := c.recovery
			return c, func() tea.Msg {
				return CodeSubmitMsg{Code: code, Recovery: recovery}
			}
		case "ctrl+r":
			toRecovery := !c.recovery
			return c, func() tea.Msg {
				return CodeSwitchMsg{ToRecovery: toRecovery}
			}
		case "esc":
			return c, func() tea.Msg {
				return CodeAbandonMsg{}
			}
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the component.
func (c *CodeInput) View() string {
	var parts []string

	if c.recovery {
		parts = append(parts, c.theme.FormTitle.Render("Recovery code"))
		parts = append(parts, "")
		parts = append(parts, c.theme.FieldLabel.Render("Enter one of your single-use recovery codes"))
	} else {
		parts = append(parts, c.theme.FormTitle.Render("Two-factor authentication"))
		parts = append(parts, "")
		parts = append(parts, c.theme.FieldLabel.Render("Enter the 6-digit code from your authenticator app"))
	}
	parts = append(parts, c.input.View())

	if c.errMsg != "" {
		parts = append(parts, "")
		parts = append(parts, c.theme.FormError.Render(styles.StatusIndicators.Error+" "+c.errMsg))
	}

	parts = append(parts, "")
	if c.recovery {
		parts = append(parts, c.theme.FieldHint.Render("ctrl+r use authenticator code, esc back to sign-in"))
	} else {
		parts = append(parts, c.theme.FieldHint.Render("ctrl+r use a recovery code, esc back to sign-in"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return c.theme.FormBox.Width(minInt(c.width-4, 52)).Render(content)
}

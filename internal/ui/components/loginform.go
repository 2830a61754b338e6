// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM COMPONENT
// =============================================================================

// LoginSubmitMsg is emitted when the user submits credentials.
type LoginSubmitMsg struct {
	Email    string
	Password string
}

// LoginForm is the email/password entry form. A reason banner above the
// fields explains why the previous session ended, when it ended
// involuntarily.
type LoginForm struct {
	email    textinput.Model
	password textinput.Model
	spin     spinner.Model

	reason     string
	errMsg     string
	submitting bool
	focusIdx   int
	width      int
	theme      *styles.Theme
}

// NewLoginForm creates a login form with the email field focused.
func NewLoginForm(theme *styles.Theme) *LoginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40
	email.Prompt = "> "
	email.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	email.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	email.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 256
	password.Width = 40
	password.Prompt = "> "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.PromptStyle = email.PromptStyle
	password.TextStyle = email.TextStyle
	password.PlaceholderStyle = email.PlaceholderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	return &LoginForm{
		email:    email,
		password: password,
		spin:     sp,
		width:    60,
		theme:    theme,
	}
}

// SetReason sets the sign-out reason banner. An empty reason hides it.
func (f *LoginForm) SetReason(reason string) {
	f.reason = reason
}

// SetError shows an error message under the fields.
func (f *LoginForm) SetError(msg string) {
	f.errMsg = msg
	f.submitting = false
}

// SetSubmitting toggles the in-flight spinner and input locking.
func (f *LoginForm) SetSubmitting(submitting bool) {
	f.submitting = submitting
	if submitting {
		f.errMsg = ""
	}
}

// Submitting reports whether a submission is in flight.
func (f *LoginForm) Submitting() bool {
	return f.submitting
}

// SetWidth sets the form width.
func (f *LoginForm) SetWidth(width int) {
	f.width = width
}

// SetEmail pre-fills the email field, used for the remembered last login.
func (f *LoginForm) SetEmail(email string) {
	f.email.SetValue(email)
}

// Email returns the current email value.
func (f *LoginForm) Email() string {
	return f.email.Value()
}

// Reset clears the password and error, keeping the email for retry.
func (f *LoginForm) Reset() {
	f.password.Reset()
	f.errMsg = ""
	f.submitting = false
}

// SpinnerTick returns the spinner's tick command for in-flight rendering.
func (f *LoginForm) SpinnerTick() tea.Cmd {
	return f.spin.Tick
}

// Update handles key and spinner messages. Tab moves between fields,
// enter submits.
func (f *LoginForm) Update(msg tea.Msg) (*LoginForm, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if f.submitting {
			var cmd tea.Cmd
			f.spin, cmd = f.spin.Update(msg)
			return f, cmd
		}
		return f, nil

	case tea.KeyMsg:
		if f.submitting {
			return f, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			f.toggleFocus()
			return f, nil
		case "enter":
			if f.email.Value() == "" || f.password.Value() == "" {
				f.errMsg = "Email and password are required."
				return f, nil
			}
			f.submitting = true
			f.errMsg = ""
			email, password := f.email.Value(), f.password.Value()
			return f, tea.Batch(f.spin.Tick, func() tea.Msg {
				return LoginSubmitMsg{Email: email, Password: password}
			})
		}
	}

	var cmd tea.Cmd
	if f.focusIdx == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (f *LoginForm) toggleFocus() {
	if f.focusIdx == 0 {
		f.focusIdx = 1
		f.email.Blur()
		f.password.Focus()
	} else {
		f.focusIdx = 0
		f.password.Blur()
		f.email.Focus()
	}
}

// View renders the form.
func (f *LoginForm) View() string {
	var parts []string

	parts = append(parts, f.theme.FormTitle.Render("Sign in to Caseline"))
	parts = append(parts, "")

	if banner := reasonText(f.reason); banner != "" {
		parts = append(parts, f.theme.ReasonBanner.Render(styles.StatusIndicators.Warning+" "+banner))
		parts = append(parts, "")
	}

	parts = append(parts, f.theme.FieldLabel.Render("Email"))
	parts = append(parts, f.email.View())
	parts = append(parts, "")
	parts = append(parts, f.theme.FieldLabel.Render("Password"))
	parts = append(parts, f.password.View())

	if f.errMsg != "" {
		parts = append(parts, "")
		parts = append(parts, f.theme.FormError.Render(styles.StatusIndicators.Error+" "+f.errMsg))
	}

	parts = append(parts, "")
	if f.submitting {
		parts = append(parts, f.spin.View()+" Signing in...")
	} else {
		parts = append(parts, f.theme.FieldHint.Render("enter to sign in, tab to switch fields"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return f.theme.FormBox.Width(minInt(f.width-4, 52)).Render(content)
}

// reasonText maps a sign-out reason to the banner shown on the login
// screen. Unknown reasons fall back to a generic line rather than being
// hidden.
func reasonText(reason string) string {
	switch reason {
	case "":
		return ""
	case "session_timeout":
		return "You were signed out due to inactivity."
	case "session_terminated":
		return "Your session was ended by an administrator."
	case "session_invalid":
		return "Your session is no longer valid. Please sign in again."
	default:
		return "You were signed out."
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

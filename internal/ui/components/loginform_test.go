// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

func pressKey(f *LoginForm, key string) (*LoginForm, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	return f.Update(msg)
}

func TestLoginForm_EmptySubmitRejected(t *testing.T) {
	f := NewLoginForm(styles.NewTheme())

	f, cmd := pressKey(f, "enter")
	if cmd != nil {
		t.Error("empty submit should not produce a command")
	}
	if !strings.Contains(f.View(), "required") {
		t.Error("view should show the validation error")
	}
}

func TestLoginForm_SubmitEmitsCredentials(t *testing.T) {
	f := NewLoginForm(styles.NewTheme())
	f.SetEmail("ada@example.com")
	f, _ = pressKey(f, "tab")
	f, _ = pressKey(f, "hunter2")

	f, cmd := pressKey(f, "enter")
	if cmd == nil {
		t.Fatal("submit should produce a command")
	}
	if !f.Submitting() {
		t.Error("form should be in submitting state")
	}

	// The batch includes the submit message; find it.
	found := false
	collectMsgs(cmd, func(msg tea.Msg) {
		if m, ok := msg.(LoginSubmitMsg); ok {
			found = true
			if m.Email != "ada@example.com" || m.Password != "hunter2" {
				t.Errorf("LoginSubmitMsg = %+v", m)
			}
		}
	})
	if !found {
		t.Error("no LoginSubmitMsg emitted")
	}
}

func TestLoginForm_KeysIgnoredWhileSubmitting(t *testing.T) {
	f := NewLoginForm(styles.NewTheme())
	f.SetEmail("a@b.com")
	f.SetSubmitting(true)

	f, cmd := pressKey(f, "enter")
	if cmd != nil {
		t.Error("keys should be ignored while submitting")
	}
	_ = f
}

func TestLoginForm_ReasonBanner(t *testing.T) {
	f := NewLoginForm(styles.NewTheme())

	if strings.Contains(f.View(), "signed out") {
		t.Error("no banner expected without a reason")
	}

	f.SetReason("session_timeout")
	if !strings.Contains(f.View(), "inactivity") {
		t.Error("timeout banner missing")
	}

	f.SetReason("session_terminated")
	if !strings.Contains(f.View(), "administrator") {
		t.Error("terminated banner missing")
	}
}

func TestLoginForm_ResetKeepsEmail(t *testing.T) {
	f := NewLoginForm(styles.NewTheme())
	f.SetEmail("keep@example.com")
	f.SetError("Invalid email or password.")

	f.Reset()
	if f.Email() != "keep@example.com" {
		t.Error("Reset should keep the email for retry")
	}
	if strings.Contains(f.View(), "Invalid email") {
		t.Error("Reset should clear the error")
	}
}

func TestReasonText(t *testing.T) {
	if reasonText("") != "" {
		t.Error("explicit sign-out should have no banner")
	}
	if reasonText("something_new") == "" {
		t.Error("unknown reasons should fall back to a generic banner")
	}
}

// collectMsgs runs a command tree and passes each produced message to fn.
func collectMsgs(cmd tea.Cmd, fn func(tea.Msg)) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			collectMsgs(sub, fn)
		}
		return
	}
	fn(msg)
}

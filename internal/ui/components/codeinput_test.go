// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

func TestCodeInput_SubmitEmitsCode(t *testing.T) {
	c := NewCodeInput(styles.NewTheme())
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("123456")})

	c, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should produce a command")
	}
	msg, ok := cmd().(CodeSubmitMsg)
	if !ok {
		t.Fatalf("expected CodeSubmitMsg, got %T", cmd())
	}
	if msg.Code != "123456" || msg.Recovery {
		t.Errorf("CodeSubmitMsg = %+v", msg)
	}
}

func TestCodeInput_EmptySubmitRejected(t *testing.T) {
	c := NewCodeInput(styles.NewTheme())

	c, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty submit should not produce a command")
	}
	if !strings.Contains(c.View(), "Enter a code.") {
		t.Error("view should show the validation error")
	}
}

func TestCodeInput_CtrlRSwitchesMode(t *testing.T) {
	c := NewCodeInput(styles.NewTheme())

	c, cmd := c.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd == nil {
		t.Fatal("ctrl+r should produce a command")
	}
	msg, ok := cmd().(CodeSwitchMsg)
	if !ok || !msg.ToRecovery {
		t.Fatalf("expected CodeSwitchMsg{ToRecovery: true}, got %#v", cmd())
	}

	c.SetRecovery(true)
	if !strings.Contains(c.View(), "Recovery code") {
		t.Error("recovery view missing title")
	}
}

func TestCodeInput_EscAbandons(t *testing.T) {
	c := NewCodeInput(styles.NewTheme())

	_, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should produce a command")
	}
	if _, ok := cmd().(CodeAbandonMsg); !ok {
		t.Fatalf("expected CodeAbandonMsg, got %T", cmd())
	}
}

func TestCodeInput_SwitchClearsTypedCode(t *testing.T) {
	c := NewCodeInput(styles.NewTheme())
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("123")})

	c.SetRecovery(true)
	c, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("typed code should not survive a mode switch")
	}
	_ = c
}

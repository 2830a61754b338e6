// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit provides an append-only event log for session lifecycle
// events: sign-in, second-factor steps, idle warnings, expiry and logout.
//
// Events are plain text lines so they can be shipped or grepped without
// tooling. The logger is process-global; tests swap the sink with SetOutput.
package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the client.
const (
	EventLoginOK        = "AUTH_LOGIN_OK"
	EventLoginFailed    = "AUTH_LOGIN_FAILED"
	EventSecondFactor   = "AUTH_2FA_REQUIRED"
	EventSecondFactorOK = "AUTH_2FA_OK"
	EventWarning        = "SESSION_TIMEOUT_WARNING"
	EventExpired        = "SESSION_EXPIRED"
	EventLogout         = "LOGOUT"
	EventRefreshFailed  = "REFRESH_FAILED"
	EventPolicyFallback = "SESSION_POLICY_FALLBACK"
)

// Logger writes timestamped audit lines to a sink.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
}

var (
	global     *Logger
	globalOnce sync.Once
)

// Global returns the process-wide audit logger, writing to stderr until a
// sink is configured.
func Global() *Logger {
	globalOnce.Do(func() {
		global = &Logger{out: os.Stderr, enabled: true}
	})
	return global
}

// SetOutput redirects audit lines to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// SetEnabled toggles audit logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Event writes one audit line. Fields are rendered as sorted key=value
// pairs so lines are stable for tests and log processors.
func (l *Logger) Event(eventType string, fields map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || l.out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	sb.WriteString(" | ")
	sb.WriteString(eventType)
	sb.WriteString(" | id=")
	sb.WriteString(uuid.NewString())

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fields[k])
	}
	sb.WriteString("\n")

	fmt.Fprint(l.out, sb.String())
}

// Event logs an event through the global logger.
func Event(eventType string, fields map[string]string) {
	Global().Event(eventType, fields)
}

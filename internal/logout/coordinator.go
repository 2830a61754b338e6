// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logout funnels every way a session can end through one
// idempotent teardown: explicit sign-out, idle expiry, remote
// termination and refresh failure all converge here. Local teardown is
// synchronous and unconditional; notifying the authority is best effort.
package logout

import (
	"context"
	"sync"
	"time"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/audit"
	"github.com/jeranaias/caseline-tui/internal/idle"
	"github.com/jeranaias/caseline-tui/internal/session"
)

// Reasons attached to a logout. The zero value means the user signed out
// on purpose and no explanation banner is shown on the login screen.
const (
	ReasonExplicit   = ""
	ReasonTimeout    = "session_timeout"
	ReasonTerminated = "session_terminated"
	ReasonInvalid    = "session_invalid"
)

// remoteTimeout caps how long the best-effort server notification may
// hold up teardown.
const remoteTimeout = 5 * time.Second

// Coordinator serializes session teardown. Once a logout has been
// performed, further calls are no-ops until Rearm, so racing triggers
// (expiry tick, refresh failure, user keypress) produce exactly one
// teardown and one reason.
type Coordinator struct {
	mu        sync.Mutex
	performed bool

	client *api.Client
	store  *session.Store
	engine *idle.Engine

	// lastReason is the reason of the most recent performed logout, kept
	// for the login screen banner.
	lastReason string
}

// New creates a coordinator over the given client, store and engine.
func New(client *api.Client, store *session.Store, engine *idle.Engine) *Coordinator {
	return &Coordinator{client: client, store: store, engine: engine}
}

// Logout tears the session down for the given reason. Returns true when
// this call performed the teardown and false when a previous call already
// had; callers use that to decide whether to emit a logged-out
// notification.
//
// Order matters: the idle engine stops first so no expiry can fire into a
// half-cleared session, then local state is cleared, then the authority
// is notified. A failed or slow notification never blocks or undoes the
// local teardown.
func (c *Coordinator) Logout(ctx context.Context, reason string) bool {
	c.mu.Lock()
	if c.performed {
		c.mu.Unlock()
		return false
	}
	c.performed = true
	c.lastReason = reason
	c.mu.Unlock()

	c.engine.Stop()
	c.store.Reset()

	audit.Event(audit.EventLogout, map[string]string{"reason": reasonLabel(reason)})

	rctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	_ = c.client.Logout(rctx)

	return true
}

// Rearm allows the next logout. Called when a new session is
// established.
func (c *Coordinator) Rearm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.performed = false
}

// LastReason returns the reason of the most recent performed logout.
func (c *Coordinator) LastReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReason
}

func reasonLabel(reason string) string {
	if reason == ReasonExplicit {
		return "explicit"
	}
	return reason
}

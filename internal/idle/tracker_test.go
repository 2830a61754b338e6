// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"testing"
	"time"
)

func TestTracker_DetachedDropsEvents(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	e.Start()
	tr := NewTracker(e, time.Second)

	clk.Advance(time.Minute)
	tr.Observe()

	// Last activity was not moved: a tick at the 5 minute mark expires.
	clk.Advance(4 * time.Minute)
	if ev := e.Reconcile(clk.Now()); ev != EventExpired {
		t.Errorf("Reconcile() = %v, want %v (detached observe must not touch)", ev, EventExpired)
	}
}

func TestTracker_AttachForwardsFirstEvent(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	e.Start()
	tr := NewTracker(e, time.Second)
	tr.Attach()

	clk.Advance(time.Minute)
	tr.Observe()

	// Activity landed at 1:00, so 4:30 on the old window is only 3:30
	// into the new one.
	clk.Advance(3*time.Minute + 30*time.Second)
	if ev := e.Reconcile(clk.Now()); ev != EventNone {
		t.Errorf("Reconcile() = %v, want %v (touch moved the window)", ev, EventNone)
	}
}

func TestTracker_ThrottleBoundsWrites(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	e.Start()
	tr := NewTracker(e, time.Minute)
	tr.Attach()

	// First event passes, a burst right behind it is swallowed by the
	// limiter, so last activity stays at the first event's instant.
	clk.Advance(time.Minute)
	tr.Observe()
	clk.Advance(time.Second)
	tr.Observe()
	tr.Observe()
	tr.Observe()

	// 5 minutes after the first (and only effective) touch.
	clk.Advance(5*time.Minute - time.Second)
	if ev := e.Reconcile(clk.Now()); ev != EventExpired {
		t.Errorf("Reconcile() = %v, want %v (burst must not extend the window)", ev, EventExpired)
	}
}

func TestTracker_ObserveReportsWarningCancel(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()
	tr := NewTracker(e, time.Second)
	tr.Attach()

	clk.Advance(4 * time.Minute)
	if ev := e.Tick(gen, clk.Now()); ev != EventWarning {
		t.Fatalf("Tick() = %v, want %v", ev, EventWarning)
	}

	if !tr.Observe() {
		t.Error("Observe() = false, want true (warning was active)")
	}
	if e.State() != StateMonitoring {
		t.Errorf("State() = %v, want %v", e.State(), StateMonitoring)
	}
}

func TestTracker_ReattachResetsLimiter(t *testing.T) {
	e, _ := newTestEngine(5 * time.Minute)
	e.Start()
	tr := NewTracker(e, time.Hour)
	tr.Attach()

	tr.Observe()
	tr.Detach()
	if tr.Attached() {
		t.Fatal("Attached() = true after Detach")
	}
	tr.Attach()

	// With an hour throttle a second event would normally be swallowed,
	// but reattaching installs a fresh limiter with one token.
	if e.State() == StateWarning {
		t.Fatal("unexpected warning state")
	}
	tr.Observe() // must not panic and must be allowed through
	if !tr.Attached() {
		t.Error("Attached() = false after Attach")
	}
}

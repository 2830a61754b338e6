// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"testing"
	"time"
)

// fakeClock is a settable clock for driving the engine through virtual
// time. No sleeping in these tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time            { return c.now }
func (c *fakeClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }
func (c *fakeClock) At(d time.Duration) time.Time { return c.now.Add(d) }

func newTestEngine(timeout time.Duration) (*Engine, *fakeClock) {
	clk := newFakeClock()
	e := NewEngine(Config{Timeout: timeout}, clk.Now)
	return e, clk
}

func TestEngine_InitialState(t *testing.T) {
	e, _ := newTestEngine(5 * time.Minute)

	if e.State() != StateInactive {
		t.Errorf("State() = %v, want %v", e.State(), StateInactive)
	}
	if e.Remaining() != -1 {
		t.Errorf("Remaining() = %d, want -1", e.Remaining())
	}
}

func TestEngine_StartEntersMonitoring(t *testing.T) {
	e, _ := newTestEngine(5 * time.Minute)

	gen := e.Start()
	if gen != 1 {
		t.Errorf("Start() gen = %d, want 1", gen)
	}
	if e.State() != StateMonitoring {
		t.Errorf("State() = %v, want %v", e.State(), StateMonitoring)
	}
}

func TestEngine_QuietTickIsNone(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(10 * time.Second)
	if ev := e.Tick(gen, clk.Now()); ev != EventNone {
		t.Errorf("Tick() = %v, want %v", ev, EventNone)
	}
	if e.State() != StateMonitoring {
		t.Errorf("State() = %v, want %v", e.State(), StateMonitoring)
	}
}

// Five-minute timeout, sixty-second lead: the warning appears once four
// minutes have elapsed, and the published countdown starts at 60.
func TestEngine_WarningAtLeadBoundary(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(4 * time.Minute)
	ev := e.Tick(gen, clk.Now())
	if ev != EventWarning {
		t.Fatalf("Tick() = %v, want %v", ev, EventWarning)
	}
	if e.State() != StateWarning {
		t.Errorf("State() = %v, want %v", e.State(), StateWarning)
	}
	if e.Remaining() != 60 {
		t.Errorf("Remaining() = %d, want 60", e.Remaining())
	}
}

func TestEngine_ActivityDuringWarningCancels(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(4*time.Minute + 5*time.Second)
	if ev := e.Tick(gen, clk.Now()); ev != EventWarning {
		t.Fatalf("Tick() = %v, want %v", ev, EventWarning)
	}

	// Fresh activity at 4:05 resets the idle window.
	if !e.Touch() {
		t.Fatal("Touch() = false, want true (warning was active)")
	}
	if e.State() != StateMonitoring {
		t.Errorf("State() = %v, want %v", e.State(), StateMonitoring)
	}
	if e.Remaining() != -1 {
		t.Errorf("Remaining() = %d, want -1", e.Remaining())
	}

	// The full timeout is available again from the touch instant.
	gen2 := e.Generation()
	clk.Advance(3 * time.Minute)
	if ev := e.Tick(gen2, clk.Now()); ev != EventNone {
		t.Errorf("Tick() after reset = %v, want %v", ev, EventNone)
	}
}

func TestEngine_TouchWhileMonitoringKeepsGeneration(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(time.Minute)
	if e.Touch() {
		t.Error("Touch() = true, want false (no warning active)")
	}
	if e.Generation() != gen {
		t.Errorf("Generation() = %d, want %d (unchanged)", e.Generation(), gen)
	}
}

func TestEngine_CountdownIsMonotonic(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(4 * time.Minute)
	e.Tick(gen, clk.Now())

	prev := e.Remaining()
	for i := 0; i < 30; i++ {
		clk.Advance(time.Second)
		ev := e.Tick(gen, clk.Now())
		if ev != EventCountdown {
			t.Fatalf("tick %d: Tick() = %v, want %v", i, ev, EventCountdown)
		}
		rem := e.Remaining()
		if rem > prev {
			t.Fatalf("tick %d: countdown went up, %d -> %d", i, prev, rem)
		}
		prev = rem
	}
	if prev != 30 {
		t.Errorf("Remaining() after 30s of countdown = %d, want 30", prev)
	}
}

func TestEngine_ExpiresExactlyOnce(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(5 * time.Minute)

	// A poll tick and a countdown tick race at the expiry instant. Only
	// the first may observe expiry; the expiry bumps the generation, so
	// the second is stale on arrival.
	first := e.Tick(gen, clk.Now())
	second := e.Tick(gen, clk.Now())

	if first != EventExpired {
		t.Errorf("first tick = %v, want %v", first, EventExpired)
	}
	if second != EventNone {
		t.Errorf("second tick = %v, want %v", second, EventNone)
	}
	if e.State() != StateExpired {
		t.Errorf("State() = %v, want %v", e.State(), StateExpired)
	}
}

func TestEngine_StaleGenerationDropped(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()
	e.Stop()

	// A tick scheduled before Stop arrives afterwards. Even with a large
	// elapsed time it must not expire anything.
	clk.Advance(time.Hour)
	if ev := e.Tick(gen, clk.Now()); ev != EventNone {
		t.Errorf("stale Tick() = %v, want %v", ev, EventNone)
	}
	if e.State() != StateInactive {
		t.Errorf("State() = %v, want %v", e.State(), StateInactive)
	}
}

func TestEngine_RestartInvalidatesOldTicks(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen1 := e.Start()
	gen2 := e.Start()

	if gen2 == gen1 {
		t.Fatalf("restart kept generation %d", gen1)
	}

	clk.Advance(time.Hour)
	if ev := e.Tick(gen1, clk.Now()); ev != EventNone {
		t.Errorf("old-gen Tick() = %v, want %v", ev, EventNone)
	}
	if ev := e.Tick(gen2, clk.Now()); ev != EventExpired {
		t.Errorf("current-gen Tick() = %v, want %v", ev, EventExpired)
	}
}

// The terminal loses focus, time passes beyond the timeout with no ticks
// delivered, then focus returns. Reconcile must force expiry immediately.
func TestEngine_ReconcileAfterBlurForcesExpiry(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	e.Start()

	clk.Advance(20 * time.Minute)
	if ev := e.Reconcile(clk.Now()); ev != EventExpired {
		t.Fatalf("Reconcile() = %v, want %v", ev, EventExpired)
	}
	if e.State() != StateExpired {
		t.Errorf("State() = %v, want %v", e.State(), StateExpired)
	}

	// A second reconcile on the already-expired engine is a no-op.
	if ev := e.Reconcile(clk.Now()); ev != EventNone {
		t.Errorf("second Reconcile() = %v, want %v", ev, EventNone)
	}
}

func TestEngine_ReconcileMidWindowIsHarmless(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	e.Start()

	clk.Advance(time.Minute)
	if ev := e.Reconcile(clk.Now()); ev != EventNone {
		t.Errorf("Reconcile() = %v, want %v", ev, EventNone)
	}
	if e.State() != StateMonitoring {
		t.Errorf("State() = %v, want %v", e.State(), StateMonitoring)
	}
}

func TestEngine_ReconcileIntoWarning(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	e.Start()

	clk.Advance(4*time.Minute + 30*time.Second)
	if ev := e.Reconcile(clk.Now()); ev != EventWarning {
		t.Fatalf("Reconcile() = %v, want %v", ev, EventWarning)
	}
	if e.Remaining() != 30 {
		t.Errorf("Remaining() = %d, want 30", e.Remaining())
	}
}

func TestEngine_StopFromWarning(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(4 * time.Minute)
	e.Tick(gen, clk.Now())
	e.Stop()

	if e.State() != StateInactive {
		t.Errorf("State() = %v, want %v", e.State(), StateInactive)
	}
	if e.Remaining() != -1 {
		t.Errorf("Remaining() = %d, want -1", e.Remaining())
	}
}

func TestEngine_TouchAfterExpiryIgnored(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	clk.Advance(5 * time.Minute)
	e.Tick(gen, clk.Now())

	if e.Touch() {
		t.Error("Touch() = true after expiry, want false")
	}
	if e.State() != StateExpired {
		t.Errorf("State() = %v, want %v", e.State(), StateExpired)
	}
}

func TestEngine_FractionalRemainingRoundsUp(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)
	gen := e.Start()

	// 59.5 seconds left rounds up to 60, never down to 59.
	clk.Advance(4*time.Minute + 500*time.Millisecond)
	if ev := e.Tick(gen, clk.Now()); ev != EventWarning {
		t.Fatalf("Tick() = %v, want %v", ev, EventWarning)
	}
	if e.Remaining() != 60 {
		t.Errorf("Remaining() = %d, want 60", e.Remaining())
	}
}

func TestEngine_ConfigDefaults(t *testing.T) {
	e := NewEngine(Config{Timeout: 240 * time.Minute}, nil)

	if e.PollInterval() != DefaultPollInterval {
		t.Errorf("PollInterval() = %v, want %v", e.PollInterval(), DefaultPollInterval)
	}
	if e.Timeout() != 240*time.Minute {
		t.Errorf("Timeout() = %v, want 240m", e.Timeout())
	}
}

func TestEngine_ConfigureBeforeStart(t *testing.T) {
	e, clk := newTestEngine(240 * time.Minute)

	e.Configure(5 * time.Minute)
	if e.Timeout() != 5*time.Minute {
		t.Fatalf("Timeout() = %v, want 5m", e.Timeout())
	}

	gen := e.Start()
	clk.Advance(5 * time.Minute)
	if ev := e.Tick(gen, clk.Now()); ev != EventExpired {
		t.Errorf("Tick() = %v, want %v", ev, EventExpired)
	}
}

func TestEngine_ConfigureIgnoredWhileRunning(t *testing.T) {
	e, _ := newTestEngine(5 * time.Minute)
	e.Start()

	e.Configure(time.Minute)
	if e.Timeout() != 5*time.Minute {
		t.Errorf("Timeout() = %v, want 5m; running sessions keep their window", e.Timeout())
	}

	e.Configure(0)
	if e.Timeout() != 5*time.Minute {
		t.Errorf("Timeout() = %v, want 5m after zero Configure", e.Timeout())
	}
}

func TestEngine_NowUsesInjectedClock(t *testing.T) {
	e, clk := newTestEngine(5 * time.Minute)

	clk.Advance(42 * time.Second)
	if !e.Now().Equal(clk.Now()) {
		t.Errorf("Now() = %v, want %v", e.Now(), clk.Now())
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateInactive:   "INACTIVE",
		StateMonitoring: "MONITORING",
		StateWarning:    "WARNING",
		StateExpired:    "EXPIRED",
		State(99):       "UNKNOWN",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"math"
	"sync"
	"time"
)

// Default engine cadence. The warning lead and poll interval are
// configuration inputs, not constants baked into the transitions.
const (
	// DefaultWarningLead is how long before expiry the warning begins.
	DefaultWarningLead = 60 * time.Second

	// DefaultPollInterval is the coarse check cadence while monitoring.
	// Sub-second precision is only needed during the warning countdown.
	DefaultPollInterval = 10 * time.Second
)

// State is the engine's position in the idle lifecycle.
type State int

const (
	// StateInactive means no session is being monitored.
	StateInactive State = iota

	// StateMonitoring means the session is live and idle time is tracked.
	StateMonitoring

	// StateWarning means expiry is imminent and a countdown is running.
	StateWarning

	// StateExpired means the idle timeout was reached. Terminal until the
	// next Start.
	StateExpired
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StateMonitoring:
		return "MONITORING"
	case StateWarning:
		return "WARNING"
	case StateExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// Event is what a tick observed.
type Event int

const (
	// EventNone: nothing to do, or the tick was stale.
	EventNone Event = iota

	// EventWarning: the engine just entered Warning.
	EventWarning

	// EventCountdown: the warning countdown advanced.
	EventCountdown

	// EventExpired: the idle timeout was reached. Delivered at most once
	// per session.
	EventExpired
)

// Config holds the engine's timing parameters.
type Config struct {
	// Timeout is the maximum allowed inactivity. Must be positive.
	Timeout time.Duration

	// WarningLead is how long before expiry the warning begins.
	// Zero means DefaultWarningLead.
	WarningLead time.Duration

	// PollInterval is the coarse check cadence. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
}

// Engine is the idle timeout state machine. The time of last activity
// lives here and nowhere else; the tracker writes it, every tick reads it.
type Engine struct {
	mu sync.Mutex

	clock func() time.Time

	timeout      time.Duration
	warningLead  time.Duration
	pollInterval time.Duration

	state        State
	lastActivity time.Time

	// remaining is the published countdown in whole seconds; -1 outside
	// Warning. Non-increasing while Warning holds.
	remaining int

	// gen invalidates outstanding ticks across Start/Stop/expiry.
	gen uint64
}

// NewEngine creates an engine in StateInactive. A nil clock means wall
// time; tests inject their own.
func NewEngine(cfg Config, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	lead := cfg.WarningLead
	if lead <= 0 {
		lead = DefaultWarningLead
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Engine{
		clock:        clock,
		timeout:      cfg.Timeout,
		warningLead:  lead,
		pollInterval: poll,
		state:        StateInactive,
		remaining:    -1,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Configure replaces the timeout before the next Start. The policy answer
// arrives per session, after the engine is constructed. No-op for a
// non-positive timeout; does not disturb a running session.
func (e *Engine) Configure(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if timeout > 0 && e.state == StateInactive {
		e.timeout = timeout
	}
}

// Start begins monitoring with last activity set to now and returns the
// new tick generation. Restarting an already-running engine resets it.
func (e *Engine) Start() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateMonitoring
	e.lastActivity = e.clock()
	e.remaining = -1
	e.gen++
	return e.gen
}

// Stop returns the engine to StateInactive and invalidates all
// outstanding ticks. Safe to call in any state; called synchronously by
// the logout coordinator before the session store is cleared.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateInactive
	e.remaining = -1
	e.gen++
}

// Now returns the engine's notion of the current time.
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Touch records fresh activity. In Warning it cancels the countdown and
// returns the engine to Monitoring; the return value reports that, so the
// caller can drop the warning UI. No-op outside Monitoring/Warning.
func (e *Engine) Touch() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateMonitoring && e.state != StateWarning {
		return false
	}

	e.lastActivity = e.clock()
	if e.state == StateWarning {
		e.state = StateMonitoring
		e.remaining = -1
		// Outstanding 1Hz countdown ticks are now stale.
		e.gen++
		return true
	}
	return false
}

// =============================================================================
// TICKS
// =============================================================================

// Tick advances the machine for a poll or countdown tick scheduled under
// generation gen at time now. Stale ticks are dropped.
func (e *Engine) Tick(gen uint64, now time.Time) Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return EventNone
	}
	return e.advanceLocked(now)
}

// Reconcile re-evaluates elapsed idle time immediately, bypassing the tick
// schedule. Called when the terminal regains focus: if the timeout already
// passed while backgrounded, this forces Expired without waiting for the
// next poll.
func (e *Engine) Reconcile(now time.Time) Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceLocked(now)
}

// advanceLocked computes the transition for the given instant.
// Callers must hold e.mu.
func (e *Engine) advanceLocked(now time.Time) Event {
	if e.state != StateMonitoring && e.state != StateWarning {
		return EventNone
	}

	elapsed := now.Sub(e.lastActivity)

	if elapsed >= e.timeout {
		e.state = StateExpired
		e.remaining = 0
		// Bump the generation so the racing tick (poll vs countdown)
		// that lost this lock sees itself stale: at most one expiry.
		e.gen++
		return EventExpired
	}

	if elapsed >= e.timeout-e.warningLead {
		rem := int(math.Ceil((e.timeout - elapsed).Seconds()))
		if e.state == StateMonitoring {
			e.state = StateWarning
			e.remaining = rem
			return EventWarning
		}
		if rem < e.remaining {
			e.remaining = rem
		}
		return EventCountdown
	}

	return EventNone
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Remaining returns the published countdown in whole seconds, or -1 when
// no warning is active.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Generation returns the current tick generation.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// Timeout returns the configured idle timeout.
func (e *Engine) Timeout() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeout
}

// PollInterval returns the coarse check cadence.
func (e *Engine) PollInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pollInterval
}

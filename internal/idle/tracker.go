// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultThrottle bounds how often raw interaction events are forwarded
// to the engine. One write per second is plenty for a timeout measured
// in minutes.
const DefaultThrottle = time.Second

// Tracker turns the stream of raw interaction events (key presses, mouse
// events, resizes) into throttled activity signals for the engine. It is
// deliberately dumb: it never looks at the engine's state, it only calls
// Touch.
type Tracker struct {
	mu sync.Mutex

	engine   *Engine
	limiter  *rate.Limiter
	throttle time.Duration
	attached bool
}

// NewTracker creates a tracker feeding the given engine. A non-positive
// throttle means DefaultThrottle.
func NewTracker(engine *Engine, throttle time.Duration) *Tracker {
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	return &Tracker{
		engine:   engine,
		throttle: throttle,
	}
}

// Attach starts forwarding events. A fresh limiter is installed so the
// first event after attach always passes through.
func (t *Tracker) Attach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.limiter = rate.NewLimiter(rate.Every(t.throttle), 1)
	t.attached = true
}

// Detach stops forwarding. Events observed while detached are dropped,
// which is what keeps warning-dialog interaction from resetting the
// countdown when the caller routes those events elsewhere.
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attached = false
}

// Attached reports whether events are currently being forwarded.
func (t *Tracker) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attached
}

// Observe records one raw interaction event. Returns true when the event
// passed the throttle and cancelled an active warning, meaning the caller
// should dismiss the warning UI.
func (t *Tracker) Observe() bool {
	t.mu.Lock()
	if !t.attached || !t.limiter.Allow() {
		t.mu.Unlock()
		return false
	}
	t.mu.Unlock()

	return t.engine.Touch()
}

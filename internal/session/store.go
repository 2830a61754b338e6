// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
)

// =============================================================================
// USER PROFILE
// =============================================================================

// UserProfile holds the display-only attributes of the signed-in user.
// It carries no secret material: tokens never appear here.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// =============================================================================
// SECOND-FACTOR CHALLENGE
// =============================================================================

// ChallengeKind identifies which second-factor variant is pending.
type ChallengeKind int

const (
	// ChallengeTOTP is a pending time-based one-time password challenge.
	ChallengeTOTP ChallengeKind = iota

	// ChallengeRecovery is a pending recovery-code challenge.
	ChallengeRecovery
)

// String returns a string representation of the ChallengeKind.
func (k ChallengeKind) String() string {
	switch k {
	case ChallengeTOTP:
		return "totp"
	case ChallengeRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// Challenge is a pending second-factor challenge. Exactly one kind is active
// at a time; a nil *Challenge means the flow is at the credentials step.
//
// The fields are unexported so the temp token cannot be mutated or copied
// out by accident; it is read through TempToken() and destroyed by the Store
// when the challenge resolves.
type Challenge struct {
	kind      ChallengeKind
	tempToken string
}

// NewChallenge creates a pending challenge around the authority-issued
// temp token. The token is single-purpose: it completes this challenge and
// nothing else.
func NewChallenge(kind ChallengeKind, tempToken string) *Challenge {
	return &Challenge{kind: kind, tempToken: tempToken}
}

// Kind returns the pending challenge variant.
func (c *Challenge) Kind() ChallengeKind {
	return c.kind
}

// TempToken returns the short-lived credential for completing the challenge.
func (c *Challenge) TempToken() string {
	return c.tempToken
}

// WithKind returns a challenge of the given kind carrying the same temp
// token. Used when the user switches between TOTP and recovery-code entry;
// the token survives the switch unchanged.
func (c *Challenge) WithKind(kind ChallengeKind) *Challenge {
	return &Challenge{kind: kind, tempToken: c.tempToken}
}

// wipe overwrites the temp token before the challenge is dropped.
func (c *Challenge) wipe() {
	c.tempToken = ""
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Snapshot is an immutable view of the store handed to subscribers.
type Snapshot struct {
	User      *UserProfile
	Challenge *Challenge
	Hydrated  bool
}

// Authenticated returns true when a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Store is the tab-wide session state container.
//
// Lifecycle: initialized empty at process start, Hydrate() once persisted
// UI state has loaded, mutated by the auth flow, Reset() by the logout
// coordinator. Subscribers are notified after every mutation.
type Store struct {
	mu sync.Mutex

	user      *UserProfile
	challenge *Challenge
	hydrated  bool

	subs   map[int]func(Snapshot)
	nextID int
}

// NewStore creates an empty, un-hydrated store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Snapshot))}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var user *UserProfile
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{User: user, Challenge: s.challenge, Hydrated: s.hydrated}
}

// User returns the signed-in user's profile, or nil.
func (s *Store) User() *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated returns true when a user is signed in.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Hydrated reports whether persisted UI state has been loaded. Components
// that must not render before that point gate on this flag.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Challenge returns the pending second-factor challenge, or nil.
func (s *Store) Challenge() *Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Hydrate marks persisted UI state as loaded. Idempotent.
func (s *Store) Hydrate() {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return
	}
	s.hydrated = true
	s.notifyLocked()
}

// SetUser records the authenticated user's profile. Called exactly once per
// successful authentication; a later profile refresh replaces it wholesale.
// Any pending challenge is destroyed, since authentication resolved it.
func (s *Store) SetUser(user *UserProfile) {
	s.mu.Lock()
	u := *user
	s.user = &u
	s.dropChallengeLocked()
	s.notifyLocked()
}

// SetChallenge records a pending second-factor challenge, replacing (and
// wiping) any previous one.
func (s *Store) SetChallenge(c *Challenge) {
	s.mu.Lock()
	s.dropChallengeLocked()
	s.challenge = c
	s.notifyLocked()
}

// ClearChallenge destroys the pending challenge and its temp token.
// Called on successful authentication or explicit abandonment of 2FA.
func (s *Store) ClearChallenge() {
	s.mu.Lock()
	s.dropChallengeLocked()
	s.notifyLocked()
}

// Reset returns the store to its initial empty state. The logout
// coordinator calls this on every sign-out path; the hydrated flag is kept,
// since the persisted UI state does not un-load.
func (s *Store) Reset() {
	s.mu.Lock()
	s.user = nil
	s.dropChallengeLocked()
	s.notifyLocked()
}

func (s *Store) dropChallengeLocked() {
	if s.challenge != nil {
		s.challenge.wipe()
		s.challenge = nil
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers an observer invoked after every mutation with a
// snapshot of the new state. The returned function removes the observer.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notifyLocked snapshots state, releases the lock and invokes subscribers.
// Callers must hold s.mu; it is released on return.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

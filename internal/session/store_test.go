// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestNewStore(t *testing.T) {
	s := NewStore()

	snap := s.Snapshot()
	if snap.User != nil {
		t.Error("new store should have no user")
	}
	if snap.Challenge != nil {
		t.Error("new store should have no challenge")
	}
	if snap.Hydrated {
		t.Error("new store should not be hydrated")
	}
}

func TestStore_Hydrate(t *testing.T) {
	s := NewStore()

	notifications := 0
	s.Subscribe(func(Snapshot) { notifications++ })

	s.Hydrate()
	if !s.Hydrated() {
		t.Error("Hydrated should be true after Hydrate")
	}
	if notifications != 1 {
		t.Errorf("Hydrate should notify once, got %d", notifications)
	}

	// Idempotent: a second call changes nothing and stays quiet.
	s.Hydrate()
	if notifications != 1 {
		t.Errorf("repeated Hydrate should not notify, got %d", notifications)
	}
}

func TestStore_SetUser(t *testing.T) {
	s := NewStore()
	s.SetUser(&UserProfile{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "admin"})

	u := s.User()
	if u == nil {
		t.Fatal("User should be set")
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want ada@example.com", u.Email)
	}
	if !s.Authenticated() {
		t.Error("Authenticated should be true")
	}
}

func TestStore_SetUserResolvesChallenge(t *testing.T) {
	s := NewStore()
	s.SetChallenge(NewChallenge(ChallengeTOTP, "tmp-1"))
	s.SetUser(&UserProfile{ID: "u1"})

	if s.Challenge() != nil {
		t.Error("successful authentication should destroy the pending challenge")
	}
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.Hydrate()
	s.SetUser(&UserProfile{ID: "u1"})
	s.SetChallenge(NewChallenge(ChallengeRecovery, "tmp-2"))

	resets := 0
	s.Subscribe(func(snap Snapshot) {
		if snap.User == nil && snap.Challenge == nil {
			resets++
		}
	})

	s.Reset()

	if s.User() != nil {
		t.Error("Reset should clear the user")
	}
	if s.Challenge() != nil {
		t.Error("Reset should clear the challenge")
	}
	if !s.Hydrated() {
		t.Error("Reset should not un-hydrate the store")
	}
	if resets != 1 {
		t.Errorf("Reset should notify exactly once, got %d", resets)
	}
}

// =============================================================================
// CHALLENGE TESTS
// =============================================================================

func TestChallenge_WithKindCarriesToken(t *testing.T) {
	c := NewChallenge(ChallengeTOTP, "tmp-3")
	r := c.WithKind(ChallengeRecovery)

	if r.Kind() != ChallengeRecovery {
		t.Errorf("Kind = %v, want recovery", r.Kind())
	}
	if r.TempToken() != "tmp-3" {
		t.Error("temp token must survive the variant switch unchanged")
	}
}

func TestStore_ClearChallengeWipesToken(t *testing.T) {
	s := NewStore()
	c := NewChallenge(ChallengeTOTP, "tmp-4")
	s.SetChallenge(c)
	s.ClearChallenge()

	if c.TempToken() != "" {
		t.Error("temp token should be wiped when the challenge is cleared")
	}
	if s.Challenge() != nil {
		t.Error("challenge should be gone")
	}
}

func TestStore_ReplaceChallengeWipesPrevious(t *testing.T) {
	s := NewStore()
	first := NewChallenge(ChallengeTOTP, "tmp-5")
	s.SetChallenge(first)
	s.SetChallenge(NewChallenge(ChallengeTOTP, "tmp-6"))

	if first.TempToken() != "" {
		t.Error("replaced challenge should have its token wiped")
	}
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore()

	calls := 0
	cancel := s.Subscribe(func(Snapshot) { calls++ })

	s.SetUser(&UserProfile{ID: "u1"})
	cancel()
	s.Reset()

	if calls != 1 {
		t.Errorf("unsubscribed observer should not be notified, got %d calls", calls)
	}
}

// =============================================================================
// TOKEN LEAKAGE GUARD
// =============================================================================

// The wire-level serialization of everything the store owns must never
// contain a bearer token. UserProfile is the only JSON-visible type; the
// challenge's temp token has no exported or tagged field at all.
func TestStore_NoTokenShapedFields(t *testing.T) {
	s := NewStore()
	s.SetUser(&UserProfile{ID: "u1", Name: "Ada", Email: "a@b.com", Role: "staff"})
	s.SetChallenge(NewChallenge(ChallengeTOTP, "super-secret-temp"))

	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	out := strings.ToLower(string(raw))
	for _, needle := range []string{"super-secret-temp", "access_token", "refresh_token", "bearer"} {
		if strings.Contains(out, needle) {
			t.Errorf("serialized snapshot leaks %q: %s", needle, out)
		}
	}
}

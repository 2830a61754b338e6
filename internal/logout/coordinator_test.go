// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logout

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/api/apitest"
	"github.com/jeranaias/caseline-tui/internal/audit"
	"github.com/jeranaias/caseline-tui/internal/idle"
	"github.com/jeranaias/caseline-tui/internal/session"
)

func TestMain(m *testing.M) {
	audit.Global().SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newFixture(t *testing.T) (*Coordinator, *session.Store, *idle.Engine, *apitest.Authority) {
	t.Helper()
	a := apitest.New(&apitest.User{ID: "u1", Email: "a@b.com", Password: "pw"})
	t.Cleanup(a.Close)

	client := api.NewClient(&api.ClientConfig{BaseURL: a.URL(), Timeout: 5 * time.Second})
	store := session.NewStore()
	engine := idle.NewEngine(idle.Config{Timeout: 5 * time.Minute}, nil)

	_, err := client.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	store.SetUser(&session.UserProfile{ID: "u1", Email: "a@b.com"})
	engine.Start()

	return New(client, store, engine), store, engine, a
}

func TestCoordinator_Logout(t *testing.T) {
	c, store, engine, a := newFixture(t)

	performed := c.Logout(context.Background(), ReasonTimeout)
	assert.True(t, performed)
	assert.False(t, store.Authenticated())
	assert.Equal(t, idle.StateInactive, engine.State())
	assert.Equal(t, 1, a.LogoutCalls)
	assert.Equal(t, ReasonTimeout, c.LastReason())
}

// Racing triggers (an expiry tick and an explicit keypress, say) must
// collapse into one teardown and one reason.
func TestCoordinator_SecondLogoutIsNoOp(t *testing.T) {
	c, _, _, a := newFixture(t)

	assert.True(t, c.Logout(context.Background(), ReasonTimeout))
	assert.False(t, c.Logout(context.Background(), ReasonExplicit))

	assert.Equal(t, 1, a.LogoutCalls)
	assert.Equal(t, ReasonTimeout, c.LastReason())
}

func TestCoordinator_RearmAllowsNextLogout(t *testing.T) {
	c, _, _, a := newFixture(t)

	assert.True(t, c.Logout(context.Background(), ReasonTimeout))
	c.Rearm()
	assert.True(t, c.Logout(context.Background(), ReasonExplicit))

	assert.Equal(t, 2, a.LogoutCalls)
	assert.Equal(t, ReasonExplicit, c.LastReason())
}

// The authority being unreachable must not prevent local teardown.
func TestCoordinator_RemoteFailureStillTearsDown(t *testing.T) {
	client := api.NewClient(&api.ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	store := session.NewStore()
	engine := idle.NewEngine(idle.Config{Timeout: 5 * time.Minute}, nil)
	store.SetUser(&session.UserProfile{ID: "u1"})
	engine.Start()
	c := New(client, store, engine)

	assert.True(t, c.Logout(context.Background(), ReasonInvalid))
	assert.False(t, store.Authenticated())
	assert.Equal(t, idle.StateInactive, engine.State())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/authflow"
	"github.com/jeranaias/caseline-tui/internal/config"
	"github.com/jeranaias/caseline-tui/internal/idle"
	"github.com/jeranaias/caseline-tui/internal/logout"
	"github.com/jeranaias/caseline-tui/internal/session"
	"github.com/jeranaias/caseline-tui/internal/storage"
	"github.com/jeranaias/caseline-tui/internal/ui/components"
	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen identifies which top-level view is active.
type Screen int

const (
	ScreenBoot     Screen = iota // Hydrating, probing the authority
	ScreenLogin                  // Credentials entry
	ScreenTotp                   // Authenticator code entry
	ScreenRecovery               // Recovery code entry
	ScreenHome                   // Authenticated workspace
)

// String returns the screen name for status output.
func (s Screen) String() string {
	switch s {
	case ScreenBoot:
		return "BOOT"
	case ScreenLogin:
		return "LOGIN"
	case ScreenTotp:
		return "TOTP"
	case ScreenRecovery:
		return "RECOVERY"
	case ScreenHome:
		return "HOME"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// APP MODEL
// =============================================================================

// Deps bundles the long-lived collaborators the model is built around.
// Everything here is constructed once in main and shared for the life of
// the process.
type Deps struct {
	Config      *config.Config
	Client      *api.Client
	Store       *session.Store
	Flow        *authflow.Flow
	Engine      *idle.Engine
	Tracker     *idle.Tracker
	Coordinator *logout.Coordinator
	State       *storage.StateStore
}

// Model is the root Bubble Tea model. It owns screen routing, the idle
// tick plumbing and the silent refresh loop; the domain decisions live in
// the flow, engine and coordinator it delegates to.
type Model struct {
	screen Screen

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Collaborators
	cfg         *config.Config
	client      *api.Client
	store       *session.Store
	flow        *authflow.Flow
	engine      *idle.Engine
	tracker     *idle.Tracker
	coordinator *logout.Coordinator
	state       *storage.StateStore

	// UI components
	loginForm *components.LoginForm
	codeInput *components.CodeInput
	overlay   *components.IdleOverlay
	statusBar *components.StatusBar

	// Session
	policy api.Policy
}

// New builds the root model. The engine inside deps should be constructed
// with the configured warning lead and poll interval; its timeout is
// replaced by the fetched policy at session start.
func New(deps Deps) *Model {
	theme := styles.NewTheme()

	m := &Model{
		screen:      ScreenBoot,
		theme:       theme,
		cfg:         deps.Config,
		client:      deps.Client,
		store:       deps.Store,
		flow:        deps.Flow,
		engine:      deps.Engine,
		tracker:     deps.Tracker,
		coordinator: deps.Coordinator,
		state:       deps.State,
		loginForm:   components.NewLoginForm(theme),
		codeInput:   components.NewCodeInput(theme),
		overlay:     components.NewIdleOverlay(theme),
		statusBar:   components.NewStatusBar(theme),
	}
	m.statusBar.SetServerURL(deps.Client.BaseURL())
	return m
}

// Screen returns the active screen.
func (m *Model) Screen() Screen {
	return m.screen
}

// Init starts the boot sequence: hydrate the store, probe the authority
// for a surviving session and load persisted UI state.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.bootProbeCmd(), m.loadStateCmd())
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

func (m *Model) bootProbeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		user, err := m.client.Me(ctx)
		m.store.Hydrate()
		return BootProbeMsg{User: user, Err: err}
	}
}

func (m *Model) loadStateCmd() tea.Cmd {
	if m.state == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		email, _ := m.state.Get(ctx, storage.KeyLastEmail)
		return StateLoadedMsg{LastEmail: email}
	}
}

func (m *Model) submitCredentialsCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		step, err := m.flow.SubmitCredentials(ctx, email, password)
		return LoginResultMsg{Step: step, Err: err}
	}
}

func (m *Model) submitCodeCmd(code string, recovery bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		var (
			step authflow.Step
			err  error
		)
		if recovery {
			step, err = m.flow.SubmitRecovery(ctx, code)
		} else {
			step, err = m.flow.SubmitTOTP(ctx, code)
		}
		return CodeResultMsg{Step: step, Err: err}
	}
}

func (m *Model) fetchPolicyCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		policy, err := m.client.FetchPolicy(ctx)
		return PolicyMsg{Policy: policy, Err: err}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		return RefreshResultMsg{OK: m.client.Refresh(ctx)}
	}
}

func (m *Model) refreshTickCmd() tea.Cmd {
	interval := time.Duration(m.cfg.Session.RefreshIntervalMinutes) * time.Minute
	if interval <= 0 {
		return nil
	}
	// A tick surviving a logout is harmless: RefreshTickMsg is ignored
	// off the home screen, and an early refresh in a new session is a
	// no-op for the authority.
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return RefreshTickMsg{}
	})
}

func (m *Model) logoutCmd(reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		m.coordinator.Logout(ctx, reason)
		return LoggedOutMsg{Reason: m.coordinator.LastReason()}
	}
}

func (m *Model) saveLastEmailCmd(email string) tea.Cmd {
	if m.state == nil || email == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_ = m.state.Set(ctx, storage.KeyLastEmail, email)
		return nil
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/audit"
	"github.com/jeranaias/caseline-tui/internal/authflow"
	"github.com/jeranaias/caseline-tui/internal/idle"
	"github.com/jeranaias/caseline-tui/internal/logout"
	"github.com/jeranaias/caseline-tui/internal/ui/components"
)

// expiredNoticeDelay is how long the expired overlay stays up before the
// app returns to the sign-in screen.
const expiredNoticeDelay = 3 * time.Second

// Update is the single message router. Screen-independent messages are
// handled first; the rest route to the active screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case ThemeChangedMsg:
		// Only the UI section hot-reloads; session and security settings
		// require a restart.
		m.cfg.UI = msg.UI
		return m, nil

	case tea.FocusMsg:
		return m, m.handleFocusRegained()

	case tea.BlurMsg:
		// Ticks keep running while unfocused; the focus handler
		// reconciles whatever they missed.
		return m, nil

	case idle.PollTickMsg:
		return m, m.handlePollTick(msg)

	case idle.CountdownTickMsg:
		return m, m.handleCountdownTick(msg)

	case RefreshTickMsg:
		if m.screen == ScreenHome {
			return m, m.refreshCmd()
		}
		return m, nil

	case RefreshResultMsg:
		return m, m.handleRefreshResult(msg.OK)

	case LoggedOutMsg:
		// Idle expiry keeps the terminal notice up; ExpiredReturnMsg
		// finishes the transition.
		if msg.Reason == logout.ReasonTimeout && m.overlay.IsExpired() {
			return m, nil
		}
		m.returnToLogin(msg.Reason)
		return m, nil

	case ExpiredReturnMsg:
		if m.overlay.IsExpired() {
			m.returnToLogin(logout.ReasonTimeout)
		}
		return m, nil
	}

	switch m.screen {
	case ScreenBoot:
		return m, m.updateBoot(msg)
	case ScreenLogin:
		return m, m.updateLogin(msg)
	case ScreenTotp, ScreenRecovery:
		return m, m.updateCode(msg)
	case ScreenHome:
		return m, m.updateHome(msg)
	}
	return m, nil
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.loginForm.SetWidth(width)
	m.codeInput.SetWidth(width)
	m.overlay.SetSize(width, height)
	m.statusBar.SetWidth(width)
}

// =============================================================================
// BOOT
// =============================================================================

func (m *Model) updateBoot(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case BootProbeMsg:
		if msg.User != nil {
			m.store.SetUser(msg.User)
			return m.startSession()
		}
		m.screen = ScreenLogin
		return nil

	case StateLoadedMsg:
		if msg.LastEmail != "" && m.loginForm.Email() == "" {
			m.loginForm.SetEmail(msg.LastEmail)
		}
		return nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
	}
	return nil
}

// =============================================================================
// LOGIN
// =============================================================================

func (m *Model) updateLogin(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case StateLoadedMsg:
		if msg.LastEmail != "" && m.loginForm.Email() == "" {
			m.loginForm.SetEmail(msg.LastEmail)
		}
		return nil

	case components.LoginSubmitMsg:
		return m.submitCredentialsCmd(msg.Email, msg.Password)

	case LoginResultMsg:
		m.loginForm.SetSubmitting(false)
		if msg.Err != nil {
			m.loginForm.SetError(loginErrorText(msg.Err))
			return nil
		}
		switch msg.Step {
		case authflow.StepTotp:
			m.screen = ScreenTotp
			m.codeInput.SetRecovery(false)
			return nil
		case authflow.StepDone:
			return tea.Batch(
				m.saveLastEmailCmd(m.loginForm.Email()),
				m.startSession(),
			)
		}
		return nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
	}

	var cmd tea.Cmd
	m.loginForm, cmd = m.loginForm.Update(msg)
	return cmd
}

// =============================================================================
// SECOND FACTOR
// =============================================================================

func (m *Model) updateCode(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case components.CodeSubmitMsg:
		return m.submitCodeCmd(msg.Code, msg.Recovery)

	case components.CodeSwitchMsg:
		var (
			step authflow.Step
			err  error
		)
		if msg.ToRecovery {
			step, err = m.flow.SwitchToRecovery()
		} else {
			step, err = m.flow.SwitchToTOTP()
		}
		if err != nil {
			m.abandonChallenge()
			return nil
		}
		m.screen = screenForStep(step, m.screen)
		m.codeInput.SetRecovery(step == authflow.StepRecovery)
		return nil

	case components.CodeAbandonMsg:
		m.abandonChallenge()
		return nil

	case CodeResultMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, authflow.ErrNoChallenge) {
				m.abandonChallenge()
				return nil
			}
			m.codeInput.SetError(codeErrorText(msg.Err))
			return nil
		}
		if msg.Step == authflow.StepDone {
			return tea.Batch(
				m.saveLastEmailCmd(m.loginForm.Email()),
				m.startSession(),
			)
		}
		return nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
	}

	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return cmd
}

func (m *Model) abandonChallenge() {
	m.flow.Abandon()
	m.screen = ScreenLogin
	m.loginForm.Reset()
}

func screenForStep(step authflow.Step, current Screen) Screen {
	switch step {
	case authflow.StepTotp:
		return ScreenTotp
	case authflow.StepRecovery:
		return ScreenRecovery
	default:
		return current
	}
}

// =============================================================================
// HOME
// =============================================================================

func (m *Model) updateHome(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PolicyMsg:
		if msg.Err != nil {
			audit.Event(audit.EventPolicyFallback, nil)
		}
		return m.applyPolicy(msg.Policy)

	case tea.KeyMsg:
		if m.overlay.IsVisible() {
			return m.handleOverlayKey(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return tea.Sequence(m.logoutCmd(logout.ReasonExplicit), tea.Quit)
		case "ctrl+l":
			return m.logoutCmd(logout.ReasonExplicit)
		}
		m.observeActivity()
		return nil

	case tea.MouseMsg:
		if !m.overlay.IsVisible() {
			m.observeActivity()
		}
		return nil
	}
	return nil
}

// handleOverlayKey processes input while the timeout overlay is up. During
// the warning any key is continue-session; after expiry input is inert
// until the app returns to sign-in.
func (m *Model) handleOverlayKey(msg tea.KeyMsg) tea.Cmd {
	if m.overlay.IsExpired() {
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		return nil
	}

	// The tracker is detached while the warning is up, so this Touch is
	// the deliberate continue-session action, not passive activity.
	if m.engine.Touch() {
		m.overlay.Hide()
		m.tracker.Attach()
		m.syncStatusBar()
		return m.engine.PollCmd(m.engine.Generation())
	}
	return nil
}

// observeActivity forwards passive input to the throttled tracker.
func (m *Model) observeActivity() {
	m.tracker.Observe()
	m.syncStatusBar()
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// startSession transitions to the authenticated screen and kicks off the
// per-session machinery. The idle engine only starts once the policy
// answer arrives.
func (m *Model) startSession() tea.Cmd {
	m.screen = ScreenHome
	m.overlay.Hide()
	m.coordinator.Rearm()

	if user := m.store.User(); user != nil {
		m.statusBar.SetUser(user.Name, user.Email)
	}
	m.syncStatusBar()

	return tea.Batch(m.fetchPolicyCmd(), m.refreshTickCmd())
}

// applyPolicy configures and starts the idle engine from the fetched
// policy. A disabled policy can still be overridden by an explicit local
// timeout, which only ever tightens the session, never loosens it past
// what the authority enforces.
func (m *Model) applyPolicy(policy api.Policy) tea.Cmd {
	m.policy = policy

	timeout := time.Duration(0)
	if policy.Enforce {
		timeout = policy.IdleTimeout
	}
	if local := time.Duration(m.cfg.Session.IdleTimeoutMinutes) * time.Minute; local > 0 {
		if timeout == 0 || local < timeout {
			timeout = local
		}
	}

	if timeout <= 0 {
		m.engine.Stop()
		m.tracker.Detach()
		m.syncStatusBar()
		return nil
	}

	m.engine.Configure(timeout)
	gen := m.engine.Start()
	m.tracker.Attach()
	m.syncStatusBar()
	return m.engine.PollCmd(gen)
}

// handlePollTick advances the engine from the coarse poll stream. The poll
// stream only ever reschedules itself: when the engine is already in
// Warning, the 1 Hz countdown stream owns the display updates and a poll
// tick must not spawn a second one.
func (m *Model) handlePollTick(msg idle.PollTickMsg) tea.Cmd {
	switch m.engine.Tick(msg.Gen, msg.Time) {
	case idle.EventWarning:
		return m.enterWarning(msg.Gen)

	case idle.EventCountdown:
		// Catch the display up, but leave the cadence to the
		// countdown stream.
		m.overlay.UpdateRemaining(m.engine.Remaining())
		m.syncStatusBar()
		return m.engine.PollCmd(msg.Gen)

	case idle.EventExpired:
		return m.expireSession()

	default:
		// Stale generations die here; live sessions keep polling.
		if msg.Gen == m.engine.Generation() && m.engine.State() != idle.StateInactive {
			return m.engine.PollCmd(msg.Gen)
		}
		return nil
	}
}

// handleCountdownTick advances the engine from the 1 Hz countdown stream.
// The stream lives exactly as long as the warning: anything other than a
// further countdown ends it.
func (m *Model) handleCountdownTick(msg idle.CountdownTickMsg) tea.Cmd {
	switch m.engine.Tick(msg.Gen, msg.Time) {
	case idle.EventCountdown:
		m.overlay.UpdateRemaining(m.engine.Remaining())
		m.syncStatusBar()
		return m.engine.CountdownCmd(msg.Gen)

	case idle.EventExpired:
		return m.expireSession()

	default:
		return nil
	}
}

// enterWarning flips the UI into the warning countdown and starts the
// 1 Hz stream alongside the continuing poll stream.
func (m *Model) enterWarning(gen uint64) tea.Cmd {
	remaining := m.engine.Remaining()
	m.tracker.Detach()
	m.overlay.ShowWarning(remaining)
	m.syncStatusBar()
	audit.Event(audit.EventWarning, map[string]string{
		"remaining_secs": strconv.Itoa(remaining),
	})
	return tea.Batch(
		m.engine.CountdownCmd(gen),
		m.engine.PollCmd(gen),
	)
}

// expireSession is the single path for idle expiry: show the terminal
// notice, tear the session down, then return to sign-in.
func (m *Model) expireSession() tea.Cmd {
	m.tracker.Detach()
	m.overlay.ShowExpired()
	m.syncStatusBar()
	audit.Event(audit.EventExpired, nil)

	return tea.Batch(
		m.logoutCmd(logout.ReasonTimeout),
		tea.Tick(expiredNoticeDelay, func(time.Time) tea.Msg {
			return ExpiredReturnMsg{}
		}),
	)
}

// handleFocusRegained reconciles the idle engine against wall time after
// the terminal regains focus. The session may have expired while blurred.
func (m *Model) handleFocusRegained() tea.Cmd {
	if m.screen != ScreenHome || m.engine.State() == idle.StateInactive {
		return nil
	}

	ev := m.engine.Reconcile(m.engine.Now())
	gen := m.engine.Generation()
	switch ev {
	case idle.EventWarning:
		return m.enterWarning(gen)
	case idle.EventCountdown:
		m.overlay.UpdateRemaining(m.engine.Remaining())
		m.syncStatusBar()
		return nil
	case idle.EventExpired:
		return m.expireSession()
	}
	m.syncStatusBar()
	return nil
}

func (m *Model) handleRefreshResult(ok bool) tea.Cmd {
	if m.screen != ScreenHome {
		return nil
	}
	if ok {
		return m.refreshTickCmd()
	}
	audit.Event(audit.EventRefreshFailed, nil)
	return m.logoutCmd(logout.ReasonInvalid)
}

// returnToLogin resets the UI to the sign-in screen with the appropriate
// reason banner. Domain teardown already happened in the coordinator.
func (m *Model) returnToLogin(reason string) {
	m.screen = ScreenLogin
	m.overlay.Hide()
	m.tracker.Detach()
	m.statusBar.SetUser("", "")
	m.syncStatusBar()
	m.loginForm.Reset()
	m.loginForm.SetReason(reason)
}

func (m *Model) syncStatusBar() {
	m.statusBar.SetSessionState(m.engine.State(), m.engine.Remaining())
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, api.ErrNetwork):
		return "Could not reach the server. Check your connection."
	default:
		return "Sign-in failed. Try again."
	}
}

func codeErrorText(err error) string {
	switch {
	case errors.Is(err, api.ErrInvalidCode):
		return "That code was not accepted. Try again."
	case errors.Is(err, api.ErrNetwork):
		return "Could not reach the server. Check your connection."
	default:
		return "Verification failed. Try again."
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/audit"
	"github.com/jeranaias/caseline-tui/internal/session"
)

// OTPLength is the expected authenticator code length.
const OTPLength = 6

// ErrNoChallenge is returned when a second-factor submission arrives with
// no pending challenge, e.g. after Abandon or a completed login.
var ErrNoChallenge = errors.New("no pending second-factor challenge")

// Step is the flow's current position.
type Step int

const (
	// StepCredentials: waiting for email and password.
	StepCredentials Step = iota

	// StepTotp: credentials accepted, waiting for an authenticator code.
	StepTotp

	// StepRecovery: credentials accepted, waiting for a recovery code.
	StepRecovery

	// StepDone: authenticated.
	StepDone
)

// String returns a string representation of the Step.
func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "CREDENTIALS"
	case StepTotp:
		return "TOTP"
	case StepRecovery:
		return "RECOVERY"
	case StepDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Flow coordinates the login conversation. It is stateless beyond what
// the session store holds, so a fresh Flow over the same store resumes
// exactly where the previous one left off.
type Flow struct {
	client *api.Client
	store  *session.Store
}

// New creates a flow over the given client and store.
func New(client *api.Client, store *session.Store) *Flow {
	return &Flow{client: client, store: store}
}

// Step derives the current step from the session store.
func (f *Flow) Step() Step {
	snap := f.store.Snapshot()
	if snap.User != nil {
		return StepDone
	}
	if snap.Challenge != nil {
		if snap.Challenge.Kind() == session.ChallengeRecovery {
			return StepRecovery
		}
		return StepTotp
	}
	return StepCredentials
}

// =============================================================================
// SUBMISSIONS
// =============================================================================

// SubmitCredentials presents email and password to the authority. On a
// direct acceptance the store gains the user and the flow is done; when a
// second factor is required the challenge is parked in the store and the
// flow moves to StepTotp.
func (f *Flow) SubmitCredentials(ctx context.Context, email, password string) (Step, error) {
	email = strings.TrimSpace(email)

	res, err := f.client.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			audit.Event(audit.EventLoginFailed, map[string]string{"email": email})
		}
		return StepCredentials, err
	}

	if res.Requires2FA {
		f.store.SetChallenge(session.NewChallenge(session.ChallengeTOTP, res.TempToken))
		audit.Event(audit.EventSecondFactor, map[string]string{"email": email})
		return StepTotp, nil
	}

	f.store.SetUser(res.User)
	audit.Event(audit.EventLoginOK, map[string]string{"user": res.User.ID})
	return StepDone, nil
}

// SubmitTOTP presents an authenticator code against the pending
// challenge. The code is normalized locally first; a short code never
// reaches the network. A rejected code leaves the challenge pending so
// the user can retry.
func (f *Flow) SubmitTOTP(ctx context.Context, code string) (Step, error) {
	ch := f.store.Challenge()
	if ch == nil {
		return f.Step(), ErrNoChallenge
	}

	code, ok := NormalizeOTP(code)
	if !ok {
		return StepTotp, fmt.Errorf("%w: expected a %d-digit code", api.ErrInvalidCode, OTPLength)
	}

	user, err := f.client.VerifyTOTP(ctx, ch.TempToken(), code)
	if err != nil {
		return StepTotp, err
	}

	f.store.SetUser(user)
	audit.Event(audit.EventSecondFactorOK, map[string]string{"user": user.ID, "method": "totp"})
	return StepDone, nil
}

// SubmitRecovery presents a single-use recovery code against the pending
// challenge. Recovery codes are opaque strings; only surrounding
// whitespace is stripped.
func (f *Flow) SubmitRecovery(ctx context.Context, code string) (Step, error) {
	ch := f.store.Challenge()
	if ch == nil {
		return f.Step(), ErrNoChallenge
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return StepRecovery, fmt.Errorf("%w: empty recovery code", api.ErrInvalidCode)
	}

	user, err := f.client.VerifyRecovery(ctx, ch.TempToken(), code)
	if err != nil {
		return StepRecovery, err
	}

	f.store.SetUser(user)
	audit.Event(audit.EventSecondFactorOK, map[string]string{"user": user.ID, "method": "recovery"})
	return StepDone, nil
}

// =============================================================================
// NAVIGATION
// =============================================================================

// SwitchToRecovery moves a pending challenge to the recovery-code step.
// The continuation token carries over; no network call is made.
func (f *Flow) SwitchToRecovery() (Step, error) {
	ch := f.store.Challenge()
	if ch == nil {
		return f.Step(), ErrNoChallenge
	}
	f.store.SetChallenge(ch.WithKind(session.ChallengeRecovery))
	return StepRecovery, nil
}

// SwitchToTOTP moves a pending challenge back to the authenticator step.
func (f *Flow) SwitchToTOTP() (Step, error) {
	ch := f.store.Challenge()
	if ch == nil {
		return f.Step(), ErrNoChallenge
	}
	f.store.SetChallenge(ch.WithKind(session.ChallengeTOTP))
	return StepTotp, nil
}

// Abandon drops the pending challenge and returns to the credentials
// step. The continuation token is wiped; the next attempt starts over.
func (f *Flow) Abandon() Step {
	f.store.ClearChallenge()
	return StepCredentials
}

// NormalizeOTP strips everything but digits from a pasted authenticator
// code and truncates to OTPLength. Reports false when fewer than
// OTPLength digits remain.
func NormalizeOTP(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() == OTPLength {
			break
		}
	}
	if b.Len() < OTPLength {
		return "", false
	}
	return b.String(), true
}

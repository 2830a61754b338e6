// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultIdleTimeout is the conservative fallback applied when the policy
// read fails: enforcement stays on rather than silently switching off.
const DefaultIdleTimeout = 240 * time.Minute

// Policy is the effective idle policy for this session.
type Policy struct {
	// IdleTimeout is the maximum allowed inactivity before forced logout.
	IdleTimeout time.Duration

	// Enforce is false when the authority disables idle enforcement
	// (absent or non-positive timeout). Fetch failure does NOT clear it.
	Enforce bool
}

type policyResponse struct {
	IdleTimeoutMinutes *int `json:"idle_session_timeout_minutes"`
}

// FetchPolicy reads the session policy endpoint. Called once per
// authenticated session; never retried, never polled.
//
// Fail safe, not fail open: a transport or server failure yields the
// conservative default with enforcement on, alongside an error wrapping
// ErrPolicyUnavailable so callers can surface that the authority was not
// consulted. Only an explicit absent or non-positive value from the
// authority disables enforcement.
func (c *Client) FetchPolicy(ctx context.Context) (Policy, error) {
	fallback := Policy{IdleTimeout: DefaultIdleTimeout, Enforce: true}

	status, body, err := c.get(ctx, "/auth/session-policy/")
	if err != nil {
		return fallback, fmt.Errorf("%w: %v", ErrPolicyUnavailable, err)
	}
	if status < 200 || status >= 300 {
		return fallback, fmt.Errorf("%w: HTTP %d", ErrPolicyUnavailable, status)
	}

	var resp policyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fallback, fmt.Errorf("%w: malformed response", ErrPolicyUnavailable)
	}

	if resp.IdleTimeoutMinutes == nil || *resp.IdleTimeoutMinutes <= 0 {
		return Policy{Enforce: false}, nil
	}
	return Policy{
		IdleTimeout: time.Duration(*resp.IdleTimeoutMinutes) * time.Minute,
		Enforce:     true,
	}, nil
}

// String returns a human-readable policy summary for status output.
func (p Policy) String() string {
	if !p.Enforce {
		return "idle enforcement disabled"
	}
	return fmt.Sprintf("idle timeout %s", p.IdleTimeout)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Error variables for the authority client. These are the only error kinds
// that cross the package boundary; callers branch with errors.Is.
var (
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode indicates a second-factor code was rejected.
	ErrInvalidCode = errors.New("invalid code")

	// ErrUnauthenticated indicates the cookies no longer authenticate (401).
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNetwork indicates a transport-level failure. The operation may be
	// retried by the user; the client never retries on its own.
	ErrNetwork = errors.New("network error")

	// ErrPolicyUnavailable indicates the idle policy read failed. Recovered
	// internally by falling back to the conservative default timeout.
	ErrPolicyUnavailable = errors.New("session policy unavailable")
)

// AuthorityError is a structured error response from the remote authority.
type AuthorityError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *AuthorityError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authority error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("authority error (HTTP %d)", e.Status)
}

// IsRetryable reports whether the error is a transient transport failure
// the user may reasonably retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

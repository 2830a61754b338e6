// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/caseline-tui/internal/session"
)

// Configuration constants for the authority client.
const (
	// DefaultTimeout is the default timeout for authority requests.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB limit
)

// ClientConfig holds construction parameters for the authority client.
type ClientConfig struct {
	// BaseURL is the root URL of the remote authority, e.g.
	// "https://app.example.com". Trailing slash is tolerated.
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client talks to the remote authority. All authenticated calls travel with
// the cookie jar attached; the jar is private to the client and is never
// read by any other component.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// onAuthLost is invoked when a refresh fails, i.e. the session is no
	// longer authenticated. Wired to the session store's Reset.
	onAuthLost func()
}

// NewClient creates an authority client with a fresh, empty cookie jar.
func NewClient(cfg *ClientConfig) *Client {
	timeout := DefaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	// cookiejar.New only fails on a broken public suffix list option;
	// the default options cannot fail.
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured authority root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthLostHandler registers the callback invoked when a refresh fails.
func (c *Client) SetAuthLostHandler(fn func()) {
	c.onAuthLost = fn
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// LoginResult is the outcome of a credentials submission. Either User is
// set (authenticated directly) or Requires2FA is true and TempToken carries
// the single-purpose credential for the pending challenge.
type LoginResult struct {
	User        *session.UserProfile
	Requires2FA bool
	TempToken   string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        *session.UserProfile `json:"user"`
	Requires2FA bool                 `json:"requires_2fa"`
	TempToken   string               `json:"temp_token"`
}

type verifyTOTPRequest struct {
	TempToken string `json:"temp_token"`
	Code      string `json:"code"`
}

type verifyRecoveryRequest struct {
	TempToken    string `json:"temp_token"`
	RecoveryCode string `json:"recovery_code"`
}

type userResponse struct {
	User *session.UserProfile `json:"user"`
}

// apiErrorResponse is the authority's structured error body.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// AUTH FLOW ENDPOINTS
// =============================================================================

// Login submits the email/password pair. The password is consumed by this
// call and retained nowhere; on a second-factor requirement the caller gets
// a temp token, never the password back.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	status, body, err := c.post(ctx, "/auth/login/", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	switch {
	case status >= 200 && status < 300:
		var resp loginResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode login response: %w", err)
		}
		if resp.Requires2FA {
			return &LoginResult{Requires2FA: true, TempToken: resp.TempToken}, nil
		}
		if resp.User == nil {
			return nil, fmt.Errorf("login response missing user")
		}
		return &LoginResult{User: resp.User}, nil

	case status == http.StatusBadRequest, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, errorMessage(body))

	default:
		return nil, authorityError(status, body)
	}
}

// VerifyTOTP completes a pending TOTP challenge. Cookie side effects are set
// by the authority on success.
func (c *Client) VerifyTOTP(ctx context.Context, tempToken, code string) (*session.UserProfile, error) {
	status, body, err := c.post(ctx, "/auth/2fa/verify/", verifyTOTPRequest{TempToken: tempToken, Code: code})
	if err != nil {
		return nil, err
	}
	return decodeChallengeResult(status, body)
}

// VerifyRecovery completes a pending challenge with a single-use recovery
// code. Same contract as VerifyTOTP.
func (c *Client) VerifyRecovery(ctx context.Context, tempToken, recoveryCode string) (*session.UserProfile, error) {
	status, body, err := c.post(ctx, "/auth/2fa/recovery/", verifyRecoveryRequest{TempToken: tempToken, RecoveryCode: recoveryCode})
	if err != nil {
		return nil, err
	}
	return decodeChallengeResult(status, body)
}

func decodeChallengeResult(status int, body []byte) (*session.UserProfile, error) {
	switch {
	case status >= 200 && status < 300:
		var resp userResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode verify response: %w", err)
		}
		if resp.User == nil {
			return nil, fmt.Errorf("verify response missing user")
		}
		return resp.User, nil

	case status == http.StatusBadRequest, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCode, errorMessage(body))

	default:
		return nil, authorityError(status, body)
	}
}

// =============================================================================
// SESSION MAINTENANCE ENDPOINTS
// =============================================================================

// Refresh silently renews the session. The request body is empty: the
// refresh token already travels in an inaccessible cookie. A failed refresh
// is always "no longer authenticated": the auth-lost handler fires and the
// caller gets false. Never retried.
func (c *Client) Refresh(ctx context.Context) bool {
	status, _, err := c.post(ctx, "/auth/refresh/", struct{}{})
	if err == nil && status >= 200 && status < 300 {
		return true
	}
	if c.onAuthLost != nil {
		c.onAuthLost()
	}
	return false
}

// Logout asks the authority to clear its server-side cookies. Best effort:
// the caller proceeds with local sign-out whatever happens here.
func (c *Client) Logout(ctx context.Context) error {
	status, body, err := c.post(ctx, "/auth/logout/", struct{}{})
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}
	return authorityError(status, body)
}

// Me validates cookie-based auth and returns the current user's profile.
// Returns ErrUnauthenticated on 401.
func (c *Client) Me(ctx context.Context) (*session.UserProfile, error) {
	status, body, err := c.get(ctx, "/auth/me/")
	if err != nil {
		return nil, err
	}
	switch {
	case status >= 200 && status < 300:
		var resp userResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode me response: %w", err)
		}
		if resp.User == nil {
			return nil, fmt.Errorf("me response missing user")
		}
		return resp.User, nil
	case status == http.StatusUnauthorized:
		return nil, ErrUnauthenticated
	default:
		return nil, authorityError(status, body)
	}
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(raw))
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// do issues one request with cookies attached and returns status and body.
// Transport failures come back wrapped in ErrNetwork; context cancellation
// is passed through untouched.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	return resp.StatusCode, data, nil
}

// authorityError builds an AuthorityError from a non-2xx response.
func authorityError(status int, body []byte) error {
	var resp apiErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error.Message != "" {
		return &AuthorityError{Status: status, Code: resp.Error.Code, Message: resp.Error.Message}
	}
	return &AuthorityError{Status: status}
}

// errorMessage extracts a display message from an error body, if any.
func errorMessage(body []byte) string {
	var resp apiErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return "request rejected"
}

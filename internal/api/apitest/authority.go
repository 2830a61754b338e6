// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-process fake of the Caseline remote
// authority for client and flow tests. It implements the auth contract
// (login, second-factor verification, refresh, logout, profile read and
// the session policy endpoint) with real httpOnly cookie side effects, so the
// code under test exercises the same cookie-jar behavior it sees in
// production.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

const (
	accessCookie  = "cl_access"
	refreshCookie = "cl_refresh"
)

// User is an account known to the fake authority.
type User struct {
	ID       string
	Name     string
	Email    string
	Role     string
	Password string

	// TOTPSecret, when set, makes login answer with a second-factor
	// challenge. Codes are verified with the real TOTP algorithm.
	TOTPSecret string

	// RecoveryCodes are single-use substitutes for a TOTP code.
	RecoveryCodes []string
}

// Authority is the fake remote authority. Zero value is not usable; call
// New.
type Authority struct {
	mu sync.Mutex

	server *httptest.Server
	users  map[string]*User // by email

	// tempTokens maps issued temp tokens to the challenged user's email.
	tempTokens map[string]string

	// sessions maps live access-cookie values to user emails.
	sessions map[string]string

	// revoked refuses refresh when true, simulating remote termination.
	revoked bool

	// IdleTimeoutMinutes backs the policy endpoint. nil → omitted field.
	IdleTimeoutMinutes *int

	// PolicyStatus, when non-zero, overrides the policy endpoint status.
	PolicyStatus int

	// Counters for assertions.
	LoginCalls   int
	RefreshCalls int
	LogoutCalls  int
}

// New starts a fake authority with the given accounts.
func New(users ...*User) *Authority {
	a := &Authority{
		users:      make(map[string]*User),
		tempTokens: make(map[string]string),
		sessions:   make(map[string]string),
	}
	for _, u := range users {
		a.users[u.Email] = u
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", a.handleLogin)
	mux.HandleFunc("POST /auth/2fa/verify/", a.handleVerifyTOTP)
	mux.HandleFunc("POST /auth/2fa/recovery/", a.handleVerifyRecovery)
	mux.HandleFunc("POST /auth/refresh/", a.handleRefresh)
	mux.HandleFunc("POST /auth/logout/", a.handleLogout)
	mux.HandleFunc("GET /auth/me/", a.handleMe)
	mux.HandleFunc("GET /auth/session-policy/", a.handlePolicy)

	a.server = httptest.NewServer(mux)
	return a
}

// URL returns the authority's base URL.
func (a *Authority) URL() string {
	return a.server.URL
}

// Close shuts the fake authority down.
func (a *Authority) Close() {
	a.server.Close()
}

// Revoke makes all subsequent refresh attempts fail with 401, simulating
// the authority terminating the session remotely.
func (a *Authority) Revoke() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = true
	a.sessions = make(map[string]string)
}

// TOTPNow returns a currently valid code for the given secret.
func TOTPNow(secret string) string {
	code, _ := totp.GenerateCode(secret, time.Now())
	return code
}

// =============================================================================
// HANDLERS
// =============================================================================

func (a *Authority) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.LoginCalls++

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed body")
		return
	}

	u, ok := a.users[req.Email]
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password incorrect")
		return
	}

	if u.TOTPSecret != "" {
		token := "tmp_" + uuid.NewString()
		a.tempTokens[token] = u.Email
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_2fa": true,
			"temp_token":   token,
		})
		return
	}

	a.issueCookies(w, u)
	writeJSON(w, http.StatusOK, map[string]any{"user": userBody(u)})
}

func (a *Authority) handleVerifyTOTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var req struct {
		TempToken string `json:"temp_token"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed body")
		return
	}

	u := a.challengedUser(req.TempToken)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "unknown or expired temp token")
		return
	}
	if !totp.Validate(req.Code, u.TOTPSecret) {
		writeError(w, http.StatusBadRequest, "invalid_code", "the code is not valid")
		return
	}

	delete(a.tempTokens, req.TempToken)
	a.issueCookies(w, u)
	writeJSON(w, http.StatusOK, map[string]any{"user": userBody(u)})
}

func (a *Authority) handleVerifyRecovery(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var req struct {
		TempToken    string `json:"temp_token"`
		RecoveryCode string `json:"recovery_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed body")
		return
	}

	u := a.challengedUser(req.TempToken)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "unknown or expired temp token")
		return
	}

	idx := -1
	for i, rc := range u.RecoveryCodes {
		if rc == req.RecoveryCode {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusBadRequest, "invalid_code", "the recovery code is not valid")
		return
	}
	// Single use.
	u.RecoveryCodes = append(u.RecoveryCodes[:idx], u.RecoveryCodes[idx+1:]...)

	delete(a.tempTokens, req.TempToken)
	a.issueCookies(w, u)
	writeJSON(w, http.StatusOK, map[string]any{"user": userBody(u)})
}

func (a *Authority) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.RefreshCalls++

	u := a.cookieUser(r)
	if u == nil || a.revoked {
		writeError(w, http.StatusUnauthorized, "invalid_session", "refresh rejected")
		return
	}
	a.issueCookies(w, u)
	w.WriteHeader(http.StatusOK)
}

func (a *Authority) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.LogoutCalls++

	if c, err := r.Cookie(accessCookie); err == nil {
		delete(a.sessions, c.Value)
	}
	clearCookie(w, accessCookie)
	clearCookie(w, refreshCookie)
	w.WriteHeader(http.StatusOK)
}

func (a *Authority) handleMe(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.cookieUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "no valid session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userBody(u)})
}

func (a *Authority) handlePolicy(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.PolicyStatus != 0 {
		w.WriteHeader(a.PolicyStatus)
		return
	}
	body := map[string]any{}
	if a.IdleTimeoutMinutes != nil {
		body["idle_session_timeout_minutes"] = *a.IdleTimeoutMinutes
	}
	writeJSON(w, http.StatusOK, body)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (a *Authority) challengedUser(tempToken string) *User {
	email, ok := a.tempTokens[tempToken]
	if !ok {
		return nil
	}
	return a.users[email]
}

func (a *Authority) cookieUser(r *http.Request) *User {
	c, err := r.Cookie(accessCookie)
	if err != nil {
		return nil
	}
	email, ok := a.sessions[c.Value]
	if !ok {
		return nil
	}
	return a.users[email]
}

func (a *Authority) issueCookies(w http.ResponseWriter, u *User) {
	access := "acc_" + uuid.NewString()
	a.sessions[access] = u.Email

	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "ref_" + uuid.NewString(),
		Path:     "/auth/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func userBody(u *User) map[string]string {
	return map[string]string{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

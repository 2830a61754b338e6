// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client for the Caseline remote authority: the login
// challenge endpoints, silent session refresh, logout and the per-session
// idle policy read.
//
// # Cookies Are The Credential
//
// The authority sets bearer tokens as httpOnly cookies on successful
// authentication. The client owns a cookie jar that it never inspects and
// never exposes; every call travels with cookies attached, none carries a
// token in a header or URL. A request that comes back 401 means the cookies
// no longer authenticate, full stop.
//
// # Error Boundary
//
// Transport and protocol failures are converted at this boundary into the
// package's error taxonomy (ErrInvalidCredentials, ErrInvalidCode,
// ErrUnauthenticated, ErrNetwork, AuthorityError). Raw *url.Error values
// never leak past it.
package api

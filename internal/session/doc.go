// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the tab-wide authenticated session state.
//
// The Store is the single owner of the signed-in user's profile and of any
// transient second-factor challenge. It is created once at startup and
// injected into every component that needs it; there is no package-level
// singleton, which keeps tests isolated from each other.
//
// # Key Types
//
//   - Store: the state container with a create → hydrate → mutate → reset
//     lifecycle and an observer subscription mechanism
//   - UserProfile: display-only attributes of the signed-in user
//   - Challenge: a pending second-factor challenge (TOTP or recovery code)
//
// # Security Invariant
//
// Bearer credentials (access/refresh tokens) are never represented here.
// They live exclusively in the HTTP client's cookie jar, set by the remote
// authority as httpOnly cookies; no field of Store, UserProfile or
// Challenge can carry them. The only credential-adjacent value is the
// short-lived temp token of a pending second-factor challenge, which is
// held in memory only and cleared the moment the challenge resolves.
package session

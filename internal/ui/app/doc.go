// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea program: screen routing between the
// boot probe, the sign-in flow, second-factor entry and the authenticated
// workspace, plus the glue that drives the idle engine from the event loop.
//
// The model deliberately owns no domain logic. Submissions delegate to
// authflow.Flow, idle decisions to idle.Engine, teardown to the logout
// coordinator. What lives here is the traffic: tick messages carry their
// generation back to the engine, terminal focus triggers a wall-clock
// reconcile, key and mouse input feeds the throttled activity tracker, and
// a background tick drives the silent token refresh.
package app

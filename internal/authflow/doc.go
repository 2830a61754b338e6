// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authflow drives the multi-step login conversation: credentials,
// then an optional second factor by authenticator code or single-use
// recovery code.
//
// The flow is a thin state machine over the session store and the API
// client. The pending challenge (which factor is expected plus the opaque
// continuation token) lives in the session store, so the flow itself holds
// no secrets and can be recreated freely. A rejected code keeps the
// challenge pending; the user retries, switches factors, or abandons back
// to the credentials step, which wipes the continuation token.
package authflow

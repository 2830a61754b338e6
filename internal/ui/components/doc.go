// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual UI components for the caseline TUI.

# Components

  - LoginForm: email/password entry with a sign-out reason banner
  - CodeInput: second-factor entry, switchable between authenticator and
    recovery codes
  - IdleOverlay: the session timeout warning and expiry overlay
  - StatusBar: bottom bar with identity, session state and shortcuts

Components follow the Bubble Tea pattern: each has Update and View
methods, owns no application state beyond presentation, and communicates
upward through messages.
*/
package components

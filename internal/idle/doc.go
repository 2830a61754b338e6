// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package idle enforces the server-configured inactivity timeout.
//
// Three cooperating pieces:
//
//   - Tracker observes raw interaction events, throttles them, and feeds a
//     single "activity occurred" signal into the engine. It decides nothing
//     else.
//   - Engine owns the authoritative time of last activity and the state
//     machine Inactive → Monitoring → Warning → Expired. Ticks are fed in
//     from outside with an explicit timestamp, and the engine's clock is
//     injectable, so tests advance virtual time instead of sleeping.
//   - Reconcile re-checks elapsed idle time when the terminal regains
//     focus, because tick delivery is unreliable while the application is
//     backgrounded.
//
// # Tick Generations
//
// Every Start/Stop bumps a generation counter and outstanding tick
// messages carry the generation they were scheduled under. A tick from a
// previous generation is dropped on arrival, which is what guarantees that
// no timer callback ever runs against a session that has since ended.
//
// # Single Expiry
//
// The transition to Expired also bumps the generation, so a coarse poll
// tick racing a countdown tick can observe expiry at most once: whichever
// arrives second is already stale.
package idle

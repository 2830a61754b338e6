// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// logout.go - Forget locally saved sign-in details.
//
// Command: logout
// Aliases: signout
//
// Sessions never outlive the TUI process, so there is no remote session
// to end here. What can linger is local convenience state: the last
// signed-in email pre-filled on the login form. This command wipes it.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/caseline-tui/internal/config"
	"github.com/jeranaias/caseline-tui/internal/storage"
)

// HandleLogout clears persisted UI state tied to the last account.
func HandleLogout(args Args) error {
	cfg := config.Global()

	statePath, err := cfg.ResolveStatePath()
	if err != nil {
		return err
	}

	state, err := storage.Open(statePath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer state.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := state.Delete(ctx, storage.KeyLastEmail); err != nil {
		return fmt.Errorf("clearing saved sign-in details: %w", err)
	}

	if !args.Quiet {
		fmt.Println("Saved sign-in details cleared.")
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Credential verification command for caseline.
//
// Command: login
// Aliases: signin
//
// Sessions are cookie-backed and live only inside a running process, so
// this command cannot leave you signed in for later invocations. What it
// does is walk the full sign-in flow against the server, including the
// second factor, report who you are, then sign out again. Useful for
// checking credentials, connectivity and the effective idle policy
// without starting the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/authflow"
	"github.com/jeranaias/caseline-tui/internal/config"
	"github.com/jeranaias/caseline-tui/internal/session"
)

// maxCodeAttempts bounds second-factor retries in one login invocation.
const maxCodeAttempts = 3

// HandleLogin interactively verifies credentials against the server.
func HandleLogin(args Args) error {
	if !IsTTY() {
		return fmt.Errorf("login requires an interactive terminal")
	}

	cfg := config.Global()
	serverURL := cfg.Server.URL
	if args.Server != "" {
		serverURL = args.Server
	}

	client := api.NewClient(&api.ClientConfig{
		BaseURL: serverURL,
		Timeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
	})
	store := session.NewStore()
	store.Hydrate()
	flow := authflow.New(client, store)

	if !args.Quiet {
		fmt.Printf("Signing in to %s\n", serverURL)
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	step, err := flow.SubmitCredentials(ctx, email, password)
	if err != nil {
		return loginFailure(err)
	}

	if step == authflow.StepTotp {
		step, err = promptSecondFactor(ctx, flow)
		if err != nil {
			return err
		}
	}

	if step != authflow.StepDone {
		return fmt.Errorf("sign-in did not complete")
	}

	user := store.User()
	fmt.Printf("%s Signed in as %s <%s>\n", okStyle.Render("OK"), user.Name, user.Email)
	policy, perr := client.FetchPolicy(ctx)
	if perr != nil {
		fmt.Printf("   %s (fallback)\n", policy.String())
	} else {
		fmt.Printf("   %s\n", policy.String())
	}

	// Leave no session behind.
	_ = client.Logout(ctx)
	store.Reset()
	return nil
}

func promptCredentials() (string, string, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	email, err := line.Prompt("Email: ")
	if err != nil {
		return "", "", promptError(err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", fmt.Errorf("email is required")
	}

	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	if len(passBytes) == 0 {
		return "", "", fmt.Errorf("password is required")
	}

	return email, string(passBytes), nil
}

// promptSecondFactor loops on code entry. Typing "r" switches to a
// recovery code; a wrong code keeps the challenge alive for another try.
func promptSecondFactor(ctx context.Context, flow *authflow.Flow) (authflow.Step, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	recovery := false
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		prompt := "Authenticator code (or 'r' for a recovery code): "
		if recovery {
			prompt = "Recovery code: "
		}

		code, err := line.Prompt(prompt)
		if err != nil {
			return authflow.StepCredentials, promptError(err)
		}
		code = strings.TrimSpace(code)

		if !recovery && strings.EqualFold(code, "r") {
			if _, err := flow.SwitchToRecovery(); err != nil {
				return authflow.StepCredentials, err
			}
			recovery = true
			attempt--
			continue
		}

		var step authflow.Step
		if recovery {
			step, err = flow.SubmitRecovery(ctx, code)
		} else {
			step, err = flow.SubmitTOTP(ctx, code)
		}
		if err == nil {
			return step, nil
		}
		if !errors.Is(err, api.ErrInvalidCode) {
			return step, loginFailure(err)
		}
		fmt.Println(warnStyle.Render("That code was not accepted."))
	}

	return authflow.StepCredentials, fmt.Errorf("too many failed code attempts")
}

func loginFailure(err error) error {
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return fmt.Errorf("invalid email or password")
	case errors.Is(err, api.ErrNetwork):
		return fmt.Errorf("could not reach the server: %w", err)
	default:
		return err
	}
}

func promptError(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return fmt.Errorf("aborted")
	}
	return err
}

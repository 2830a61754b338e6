// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command for caseline.
//
// Command: status
// Aliases: s
//
// Examples:
//   caseline status            Show server and session status
//   caseline status --json     Status in JSON format (scripting)
//
// Output Fields:
//   Server     Configured authority URL
//   Reachable  Whether the server answered the probe
//   Signed in  Always "no" here: CLI invocations carry no session
//   Policy     Effective idle policy as the server reports it
//   Audit      Audit log destination, if enabled
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/config"
	"github.com/jeranaias/caseline-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Cyan).
				MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	okStyle = lipgloss.NewStyle().
		Foreground(styles.Emerald)

	warnStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)
)

// statusData is the JSON shape of the status command.
type statusData struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	Policy    string `json:"policy,omitempty"`
	Audit     string `json:"audit,omitempty"`
	Version   string `json:"version"`
}

// HandleStatus probes the configured server and reports what it finds.
// Sessions live only inside a running TUI, so this never shows a signed-in
// identity; it answers "can I reach the server and what will it enforce".
func HandleStatus(args Args) error {
	cfg := config.Global()
	serverURL := cfg.Server.URL
	if args.Server != "" {
		serverURL = args.Server
	}

	client := api.NewClient(&api.ClientConfig{
		BaseURL: serverURL,
		Timeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := statusData{
		Server:  serverURL,
		Version: Version,
	}

	// An unauthenticated probe: 401 still proves the server is there.
	_, err := client.Me(ctx)
	data.Reachable = err == nil || !api.IsRetryable(err)

	if data.Reachable {
		policy, perr := client.FetchPolicy(ctx)
		data.Policy = policy.String()
		if perr != nil {
			data.Policy += " (fallback)"
		}
	}
	if cfg.Security.AuditEnabled {
		data.Audit = cfg.Security.AuditLogPath
	}

	if args.JSON {
		return NewJSONResponse("status", data).Print()
	}

	fmt.Println(statusTitleStyle.Render("caseline status"))

	fmt.Println(sectionStyle.Render("Server"))
	fmt.Printf("  %s %s\n", labelStyle.Render("URL"), data.Server)
	if data.Reachable {
		fmt.Printf("  %s %s\n", labelStyle.Render("Reachable"), okStyle.Render("yes"))
		fmt.Printf("  %s %s\n", labelStyle.Render("Policy"), data.Policy)
	} else {
		fmt.Printf("  %s %s\n", labelStyle.Render("Reachable"), warnStyle.Render("no"))
	}

	fmt.Println(sectionStyle.Render("Local"))
	if data.Audit != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("Audit log"), data.Audit)
	} else {
		fmt.Printf("  %s %s\n", labelStyle.Render("Audit log"), "disabled")
	}
	fmt.Printf("  %s %s\n", labelStyle.Render("Version"), Version)

	return nil
}

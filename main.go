// caseline TUI - terminal client for the Caseline platform.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/caseline-tui/internal/api"
	"github.com/jeranaias/caseline-tui/internal/audit"
	"github.com/jeranaias/caseline-tui/internal/authflow"
	"github.com/jeranaias/caseline-tui/internal/cli"
	"github.com/jeranaias/caseline-tui/internal/config"
	"github.com/jeranaias/caseline-tui/internal/idle"
	"github.com/jeranaias/caseline-tui/internal/logout"
	"github.com/jeranaias/caseline-tui/internal/session"
	"github.com/jeranaias/caseline-tui/internal/storage"
	"github.com/jeranaias/caseline-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		exitOn(runTUI(args))
	case cli.CmdStatus:
		exitOn(cli.HandleStatus(args))
	case cli.CmdLogin:
		exitOn(cli.HandleLogin(args))
	case cli.CmdLogout:
		exitOn(cli.HandleLogout(args))
	case cli.CmdConfig:
		exitOn(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI wires the long-lived collaborators together and runs the
// Bubble Tea program.
func runTUI(args cli.Args) error {
	cfg := config.Global()
	serverURL := cfg.Server.URL
	if args.Server != "" {
		serverURL = args.Server
	}

	setupAudit(cfg)

	client := api.NewClient(&api.ClientConfig{
		BaseURL: serverURL,
		Timeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
	})
	store := session.NewStore()
	client.SetAuthLostHandler(store.Reset)

	engine := idle.NewEngine(idle.Config{
		WarningLead:  time.Duration(cfg.Session.WarningLeadSecs) * time.Second,
		PollInterval: time.Duration(cfg.Session.PollIntervalSecs) * time.Second,
	}, nil)
	tracker := idle.NewTracker(engine, time.Duration(cfg.Session.ActivityThrottleMs)*time.Millisecond)

	// UI state is best-effort: a broken database never blocks sign-in.
	var state *storage.StateStore
	if statePath, err := cfg.ResolveStatePath(); err == nil {
		if s, err := storage.Open(statePath); err == nil {
			state = s
			defer s.Close()
		}
	}

	model := app.New(app.Deps{
		Config:      cfg,
		Client:      client,
		Store:       store,
		Flow:        authflow.New(client, store),
		Engine:      engine,
		Tracker:     tracker,
		Coordinator: logout.New(client, store, engine),
		State:       state,
	})

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	// UI-section edits to the config file apply without a restart.
	if path, err := config.ConfigPathTOML(); err == nil {
		if watcher, err := config.Watch(path, func(ui config.UIConfig) {
			program.Send(app.ThemeChangedMsg{UI: ui})
		}); err == nil {
			defer watcher.Close()
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// setupAudit points the audit log at the configured destination. Auditing
// stays on stderr if the file cannot be opened.
func setupAudit(cfg *config.Config) {
	logger := audit.Global()
	logger.SetEnabled(cfg.Security.AuditEnabled)
	if !cfg.Security.AuditEnabled {
		return
	}

	path := cfg.Security.AuditLogPath
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return
		}
		if err := config.EnsureConfigDir(); err != nil {
			return
		}
		path = filepath.Join(dir, "audit.log")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	logger.SetOutput(f)
}

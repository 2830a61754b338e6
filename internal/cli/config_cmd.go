// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command for caseline.
//
// Command: config
//
// Examples:
//   caseline config                 Show effective configuration
//   caseline config get server.url  Read a single value
//   caseline config set session.warning_lead_secs 90
//   caseline config path            Show the config file location
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/caseline-tui/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show", "list":
		return configShow(args)
	case "get":
		return configGet(args)
	case "set":
		return configSet(args)
	case "path":
		return configPath()
	default:
		return fmt.Errorf("unknown config subcommand %q (expected show, get, set or path)", args.Subcommand)
	}
}

func configShow(args Args) error {
	cfg := config.Global()

	if args.JSON {
		values := make(map[string]interface{})
		for _, key := range config.GetAllKeys() {
			if v, err := cfg.Get(key); err == nil {
				values[key] = v
			}
		}
		return NewJSONResponse("config", values).Print()
	}

	fmt.Println(statusTitleStyle.Render("caseline configuration"))
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("  %-36s %v\n", key, v)
	}
	return nil
}

func configGet(args Args) error {
	if args.ConfigKey == "" {
		return fmt.Errorf("usage: caseline config get KEY")
	}

	v, err := config.Global().Get(args.ConfigKey)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{args.ConfigKey: v}).Print()
	}
	fmt.Printf("%v\n", v)
	return nil
}

func configSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: caseline config set KEY VALUE")
	}

	cfg := config.Global().Clone()
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	config.SetGlobal(cfg)

	if !args.Quiet {
		fmt.Printf("%s = %s\n", args.ConfigKey, args.ConfigVal)
	}
	return nil
}

func configPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Printf("%s (not created yet)\n", path)
		return nil
	}
	fmt.Println(path)
	return nil
}

package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"github.com/martinsuchenak/avtrackd/cmd/device"
	"github.com/martinsuchenak/avtrackd/cmd/project"
	"github.com/martinsuchenak/avtrackd/cmd/server"
	"github.com/martinsuchenak/avtrackd/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	// Initialize structured logging
	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "avtrackd",
		Version:     version,
		Usage:       "Project and device tracking for AV and smart home installations",
		Description: "Track installation projects, their devices and IP address plans, with an HTTP API, MCP server, and CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"AVT_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"AVT_LOG_FORMAT"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Server URL for client commands",
				EnvVars: []string{"AVT_SERVER_URL"},
				Global:  true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			server.Command(),
			{
				Name:        "project",
				Usage:       "Project management commands",
				Description: "Manage installation projects",
				Commands:    project.Commands(),
			},
			{
				Name:        "device",
				Usage:       "Device management commands",
				Description: "Manage devices within projects",
				Commands:    device.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

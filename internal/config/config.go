package config

import (
	"strconv"

	"github.com/paularlott/cli"
)

// Config holds the application configuration
type Config struct {
	DataDir          string
	ListenAddr       string
	APIAuthToken     string
	MCPAuthToken     string
	SnapshotsEnabled bool
	SnapshotDir      string
	SnapshotSchedule string
	SnapshotKeep     int
}

var current Config

// GetFlags returns the server configuration flags. Values bind to the
// package-level config that Load returns.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Directory for the SQLite database",
			DefaultValue: "./data",
			EnvVars:      []string{"AVT_DATA_DIR"},
			AssignTo:     &current.DataDir,
		},
		&cli.StringFlag{
			Name:         "listen",
			Usage:        "HTTP listen address",
			DefaultValue: ":8080",
			EnvVars:      []string{"AVT_LISTEN_ADDR"},
			AssignTo:     &current.ListenAddr,
		},
		&cli.StringFlag{
			Name:     "api-token",
			Usage:    "Bearer token for API authentication (empty disables auth)",
			EnvVars:  []string{"AVT_API_TOKEN"},
			AssignTo: &current.APIAuthToken,
		},
		&cli.StringFlag{
			Name:     "mcp-token",
			Usage:    "Bearer token for MCP authentication (empty disables auth)",
			EnvVars:  []string{"AVT_MCP_TOKEN"},
			AssignTo: &current.MCPAuthToken,
		},
		&cli.BoolFlag{
			Name:    "snapshots",
			Usage:   "Enable scheduled JSON snapshots of the database",
			EnvVars: []string{"AVT_SNAPSHOTS"},
		},
		&cli.StringFlag{
			Name:         "snapshot-dir",
			Usage:        "Directory for scheduled snapshots",
			DefaultValue: "./data/snapshots",
			EnvVars:      []string{"AVT_SNAPSHOT_DIR"},
			AssignTo:     &current.SnapshotDir,
		},
		&cli.StringFlag{
			Name:         "snapshot-schedule",
			Usage:        "Cron expression for scheduled snapshots",
			DefaultValue: "0 3 * * *",
			EnvVars:      []string{"AVT_SNAPSHOT_SCHEDULE"},
			AssignTo:     &current.SnapshotSchedule,
		},
		&cli.StringFlag{
			Name:         "snapshot-keep",
			Usage:        "Number of snapshots to keep (0 keeps all)",
			DefaultValue: "14",
			EnvVars:      []string{"AVT_SNAPSHOT_KEEP"},
		},
	}
}

// Load finalizes the configuration after flag parsing
func Load(cmd *cli.Command) *Config {
	cfg := current
	cfg.SnapshotsEnabled = cmd.GetBool("snapshots")
	if keep, err := strconv.Atoi(cmd.GetString("snapshot-keep")); err == nil && keep >= 0 {
		cfg.SnapshotKeep = keep
	}
	return &cfg
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}

// IsMCPEnabled checks if MCP authentication is configured
func (c *Config) IsMCPEnabled() bool {
	return c.MCPAuthToken != ""
}

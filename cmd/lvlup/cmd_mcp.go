package main

import (
	"fmt"

	"github.com/nvandessel/lvlup/internal/mcp"
	"github.com/nvandessel/lvlup/internal/ratelimit"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Expose lvlup to MCP clients over stdin/stdout.

Tools: lvlup_update, lvlup_stats, lvlup_history.
Resource: lvlup://stats.

Example client configuration:
  {"command": "lvlup", "args": ["mcp-server"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.engine.Init(cmd.Context()); err != nil {
				return fmt.Errorf("init failed: %w", err)
			}

			srv, err := mcp.NewServer(&mcp.Config{
				Name:    "lvlup",
				Version: version,
				Engine:  a.engine,
				DataDir: a.dataDir,
				Limits:  ratelimit.NewLimits(a.cfg.Server.UpdatesPerMinute),
				Logger:  a.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer srv.Close()

			return srv.Run(cmd.Context())
		},
	}
}

package main

import (
	"fmt"

	"github.com/nvandessel/lvlup/internal/ratelimit"
	"github.com/nvandessel/lvlup/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the stat API over HTTP:

  GET  /get_stats     full snapshot
  POST /update_stat   apply a change to one stat
  GET  /get_history   change log lines for a range
  GET  /model         the 3D model asset

POST /update_stat takes {"category", "stat", "change", "date"}. The
change must be an integer within ±1000000 and the names at most 64
characters; anything else is answered with 400.

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  lvlup serve
  lvlup serve --addr 0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			if _, err := a.engine.Init(cmd.Context()); err != nil {
				return fmt.Errorf("init failed: %w", err)
			}

			srv := server.New(a.engine, server.Config{
				Addr:      addr,
				ModelPath: a.cfg.Server.ModelPath,
				Limits:    ratelimit.NewLimits(a.cfg.Server.UpdatesPerMinute),
				Logger:    a.logger,
			})

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a.logger.Info("lvlup server starting", "addr", addr, "data_dir", a.dataDir)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")

	return cmd
}

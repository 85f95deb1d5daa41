package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lvlup",
		Short: "Skill progression tracker",
		Long: `lvlup tracks stats grouped into categories. Every stat accumulates
value toward a threshold; crossing it raises the stat's level and grows
the threshold by 25%.

Changes are recorded in a human-readable change log and can be applied
from the command line, the HTTP API (lvlup serve) or an MCP client
(lvlup mcp-server).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("data", "", "Data directory (default: ~/.lvlup)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.lvlup/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newUpdateCmd(),
		newStatsCmd(),
		newHistoryCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/lvlup/internal/backup"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the stat snapshot and change log from a backup",
		Long: `Restore the stat snapshot and change log from a backup file (V1 or V2).
The format is auto-detected. Current data is replaced, so stop any running
server first.

Examples:
  lvlup restore ~/.lvlup/backups/lvlup-backup-20261019-120000.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			inputPath, err := a.confineBackupPath(args[0])
			if err != nil {
				return fmt.Errorf("restore path rejected: %w", err)
			}

			res, err := backup.Restore(cmd.Context(), a.store, a.log, inputPath)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d stats and %d log lines from %s (total level %d)\n",
				res.StatCount, res.LogLines, args[0], res.TotalLevel)
			return nil
		},
	}
}

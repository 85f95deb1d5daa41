package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the stat snapshot and change log",
		Long: `Create the default stat snapshot and the change log header in the
data directory. Existing data is left untouched, so running init twice
is safe.

Examples:
  lvlup init
  lvlup init --data ./progress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Init(cmd.Context())
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}

			modelPath := a.cfg.Server.ModelPath
			_, statErr := os.Stat(modelPath)
			modelFound := statErr == nil
			if !modelFound {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: model file not found at %s; /model will return 404\n", modelPath)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"data_dir":         a.dataDir,
					"snapshot_created": res.SnapshotCreated,
					"log_created":      res.LogCreated,
					"model_found":      modelFound,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized lvlup in %s\n", a.dataDir)
			fmt.Fprintf(out, "  Snapshot: %s\n", createdOrExisting(res.SnapshotCreated))
			fmt.Fprintf(out, "  Change log: %s\n", createdOrExisting(res.LogCreated))
			return nil
		},
	}
}

func createdOrExisting(created bool) string {
	if created {
		return "created"
	}
	return "already present"
}

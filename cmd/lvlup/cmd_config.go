package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, environment
variables (LVLUP_*) and command line flags have been applied.

Examples:
  lvlup config
  lvlup config --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			effective := *cfg
			if dataDir, err := cfg.DataDir(); err == nil {
				effective.Storage.DataDir = dataDir
			}
			if backupDir, err := cfg.BackupDir(); err == nil {
				effective.Backup.Dir = backupDir
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(effective)
			}

			data, err := yaml.Marshal(&effective)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

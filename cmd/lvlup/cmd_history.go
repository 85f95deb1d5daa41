package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print change log lines for a time range",
		Long: `Print the change log lines recorded within a range ending now.

Ranges: week (default), month, half_year, year, all.
Unknown range names fall back to week.

Examples:
  lvlup history
  lvlup history --range month --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			rangeName, _ := cmd.Flags().GetString("range")
			rng := changelog.ParseRange(rangeName)

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.History(cmd.Context(), rng)
			if errors.Is(err, changelog.ErrLogUnavailable) {
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"success": false,
						"range":   rng.String(),
						"error":   err.Error(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No change log yet. Run 'lvlup init' or record a change first.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			logs := res.Lines()
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"success": true,
					"range":   rng.String(),
					"count":   len(logs),
					"logs":    logs,
					"skipped": len(res.Skipped),
				})
			}

			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintf(out, "No changes in range %s\n", rng)
				return nil
			}
			for _, line := range logs {
				fmt.Fprintln(out, line)
			}
			if len(res.Skipped) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d malformed line(s)\n", len(res.Skipped))
			}
			return nil
		},
	}

	cmd.Flags().String("range", string(changelog.RangeWeek), "Time range: week, month, half_year, year, all")

	return cmd
}

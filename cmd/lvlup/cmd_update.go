package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <category> <stat> <delta>",
		Short: "Apply a change to one stat",
		Long: `Add delta to a stat. Reaching the stat's threshold raises its level
and carries the overshoot into the next level. Negative deltas lower the
value but never below zero.

Flags must come before the positional arguments so negative deltas are
not mistaken for flags.

Examples:
  lvlup update Mental Memory 2
  lvlup update Physical Strength -1
  lvlup update --date 2026-10-01 Social Charisma 3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dateStr, _ := cmd.Flags().GetString("date")

			delta, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("delta must be an integer, got %q", args[2])
			}

			req := progression.UpdateRequest{
				Category: args[0],
				Stat:     args[1],
				Change:   &delta,
				Date:     dateStr,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.ApplyDelta(cmd.Context(), req.Mutation(a.engine.Now(), "cli"))
			if errors.Is(err, progression.ErrUnknownTarget) {
				return fmt.Errorf("%w (known categories are listed by 'lvlup stats')", err)
			}
			if err != nil {
				return fmt.Errorf("update failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s/%s: %d/%d (level %d)\n", res.Category, res.Stat, res.Value, res.CurrentMax, res.Level)
			if res.LeveledUp {
				fmt.Fprintf(out, "Level up! %s is now level %d\n", res.Stat, res.Level)
			}
			fmt.Fprintf(out, "Total level: %d\n", res.TotalLevel)
			return nil
		},
	}

	cmd.Flags().String("date", "", "Record the change on this date (YYYY-MM-DD)")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

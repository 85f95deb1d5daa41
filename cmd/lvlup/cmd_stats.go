package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/lvlup/internal/models"
	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [category]",
		Short: "Show every stat, or the stats of one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.engine.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}

			if len(args) == 1 {
				cat, ok := snap.Categories[args[0]]
				if !ok {
					return fmt.Errorf("%w: category %q", progression.ErrUnknownTarget, args[0])
				}
				filtered := models.NewSnapshot()
				filtered.Categories[args[0]] = cat
				filtered.TotalLevel = snap.TotalLevel
				snap = filtered
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(snap)
			}

			printSnapshot(cmd, snap)
			return nil
		},
	}
}

func printSnapshot(cmd *cobra.Command, snap *models.Snapshot) {
	out := cmd.OutOrStdout()
	for _, catName := range snap.CategoryNames() {
		fmt.Fprintf(out, "%s\n", catName)
		for _, statName := range snap.StatNames(catName) {
			st := snap.Categories[catName][statName]
			fmt.Fprintf(out, "  %-14s %4d/%-4d level %d\n", statName, st.Value, st.CurrentMax, st.Level)
		}
	}
	fmt.Fprintf(out, "Total level: %d\n", snap.TotalLevel)
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixtape/internal/catalog"
	"mixtape/internal/engine"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog counts and analysis coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				stats, err := eng.Stats(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}

				coverage := "n/a"
				if stats.Tracks > 0 {
					coverage = fmt.Sprintf("%.0f%%", 100*float64(stats.Analyzed)/float64(stats.Tracks))
				}

				rows := [][]string{
					{"Tracks", strconv.Itoa(stats.Tracks)},
					{"Analyzed", strconv.Itoa(stats.Analyzed)},
					{"Coverage", coverage},
					{"Cached pairs", strconv.Itoa(stats.CachedPairs)},
					{"Clusters", strconv.Itoa(stats.Clusters)},
					{"Playlists", strconv.Itoa(stats.Playlists)},
					{"Catalog", store.Path()},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Item", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixtape/internal/catalog"
	"mixtape/internal/engine"
)

func newSuggestCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "suggest <track-id>",
		Short: "Rank follow-up tracks for a playing track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid track id %q", args[0])
			}

			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				suggestions, err := eng.SuggestNext(ctx, id, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, suggestions)
				}
				if len(suggestions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No compatible tracks above the configured minimum score.")
					return nil
				}

				rows := make([][]string, 0, len(suggestions))
				for _, s := range suggestions {
					rows = append(rows, []string{
						strconv.FormatInt(s.Track.ID, 10),
						s.Track.Title,
						s.Track.Artist,
						fmt.Sprintf("%.3f", s.Record.Score),
						string(s.Record.Transition),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Artist", "Score", "Transition"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum suggestions to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

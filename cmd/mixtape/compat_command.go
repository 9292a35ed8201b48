package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixtape/internal/catalog"
	"mixtape/internal/compat"
	"mixtape/internal/engine"
)

func newCompatCommand(cmdCtx *commandContext) *cobra.Command {
	var showSimilarity bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "compat <track-a> <track-b>",
		Short: "Rate the transition between two tracks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid track id %q", args[0])
			}
			b, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid track id %q", args[1])
			}

			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				record, err := eng.Compatibility(ctx, a, b)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, record)
				}

				rows := [][]string{
					{"Score", fmt.Sprintf("%.3f", record.Score)},
					{"Transition", transitionLabel(record.Transition)},
					{"Harmonic distance", strconv.Itoa(record.HarmonicDistance)},
					{"Harmonic compatible", yesNo(record.HarmonicCompatible)},
					{"BPM ratio", fmt.Sprintf("%.3f", record.BPMRatio)},
					{"BPM compatible", yesNo(record.BPMCompatible)},
					{"Energy delta", fmt.Sprintf("%.2f", record.EnergyDelta)},
					{"Energy compatible", yesNo(record.EnergyCompatible)},
				}

				if showSimilarity {
					result, err := eng.Similarity(ctx, a, b)
					if err != nil {
						return err
					}
					rows = append(rows,
						[]string{"Vector similarity", fmt.Sprintf("%.3f", result.Overall)},
						[]string{"Euclidean", fmt.Sprintf("%.3f", result.Euclidean)},
						[]string{"Cosine", fmt.Sprintf("%.3f", result.Cosine)},
					)
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Metric", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showSimilarity, "similarity", false, "Include full 12-dimension vector similarity")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func transitionLabel(t compat.Transition) string {
	switch t {
	case compat.TransitionBlend:
		return "blend (long overlap)"
	case compat.TransitionFade:
		return "fade (crossfade)"
	default:
		return "cut (hard cut or effect)"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

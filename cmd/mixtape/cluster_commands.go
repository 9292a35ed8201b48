package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mixtape/internal/catalog"
	"mixtape/internal/cluster"
	"mixtape/internal/engine"
)

func newClustersCommand(cmdCtx *commandContext) *cobra.Command {
	var refit bool
	var k int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Show or refit the genre cluster model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				model, err := loadOrFit(ctx, eng, refit, k)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, model)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Model: k=%d seed=%d fitted %s\n",
					model.K, model.Seed, model.FittedAt.Local().Format("2006-01-02 15:04"))

				rows := make([][]string, 0, len(model.Clusters))
				for _, c := range model.Clusters {
					rows = append(rows, []string{
						strconv.Itoa(c.ID),
						c.Label,
						strconv.Itoa(len(c.Members)),
						fmt.Sprintf("%.0f", c.AverageBPM),
						fmt.Sprintf("%.2f", c.MeanEnergy),
						strings.Join(c.DominantKeys, " "),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Label", "Tracks", "Avg BPM", "Energy", "Keys"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refit, "refit", false, "Fit a fresh model before showing it")
	cmd.Flags().IntVarP(&k, "clusters", "k", 0, "Cluster count for --refit (0 uses the configured default)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func loadOrFit(ctx context.Context, eng *engine.Engine, refit bool, k int) (*cluster.Model, error) {
	if refit {
		return eng.RefitClusters(ctx, k)
	}
	return eng.Clusters(ctx)
}

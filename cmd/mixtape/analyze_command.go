package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mixtape/internal/analysis"
	"mixtape/internal/catalog"
	"mixtape/internal/engine"
)

func newAnalyzeCommand(cmdCtx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "analyze [track-id...]",
		Short: "Compute feature vectors for tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass track ids or --all")
			}
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				var tasks []*analysis.Task
				if all {
					queued, err := eng.AnalyzeLibrary(ctx)
					if err != nil {
						return err
					}
					tasks = queued
				} else {
					for _, arg := range args {
						id, err := strconv.ParseInt(arg, 10, 64)
						if err != nil {
							return fmt.Errorf("invalid track id %q", arg)
						}
						task, err := eng.Analyze(ctx, id, catalog.PriorityInteractive)
						if err != nil {
							return err
						}
						tasks = append(tasks, task)
					}
				}

				out := cmd.OutOrStdout()
				failures := 0
				for _, task := range tasks {
					select {
					case <-task.Done():
					case <-ctx.Done():
						return ctx.Err()
					}
					if err := task.Err(); err != nil {
						failures++
						fmt.Fprintf(out, "track %d: %v\n", task.TrackID, err)
						continue
					}
					fmt.Fprintf(out, "track %d: analyzed in %s\n", task.TrackID, task.Duration().Round(time.Millisecond))
				}
				if failures > 0 {
					return fmt.Errorf("%d of %d tracks failed analysis", failures, len(tasks))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Analyze every track lacking a current vector")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixtape/internal/catalog"
	"mixtape/internal/engine"
	"mixtape/internal/hamms"
)

func newTracksCommand(cmdCtx *commandContext) *cobra.Command {
	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "Manage library tracks",
	}

	tracksCmd.AddCommand(newTracksAddCommand(cmdCtx))
	tracksCmd.AddCommand(newTracksListCommand(cmdCtx))
	tracksCmd.AddCommand(newTracksRemoveCommand(cmdCtx))

	return tracksCmd
}

func newTracksAddCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		title    string
		artist   string
		genre    string
		key      string
		bpm      float64
		duration float64
		energy   float64
		analyze  bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a track with its raw descriptors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				raw := hamms.RawFeatures{
					BPM:         bpm,
					Key:         key,
					DurationSec: duration,
					Genre:       genre,
				}
				if cmd.Flags().Changed("energy") {
					raw.Energy = &energy
				}

				track, err := store.AddTrack(ctx, catalog.PriorityInteractive, title, artist, raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added track %d: %s - %s\n", track.ID, artist, title)

				if !analyze {
					return nil
				}
				task, err := eng.Analyze(ctx, track.ID, catalog.PriorityInteractive)
				if err != nil {
					return err
				}
				<-task.Done()
				if err := task.Err(); err != nil {
					return fmt.Errorf("analysis failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Analysis complete")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Track title")
	cmd.Flags().StringVar(&artist, "artist", "", "Track artist")
	cmd.Flags().StringVar(&genre, "genre", "", "Track genre")
	cmd.Flags().StringVar(&key, "key", "", "Musical key (Camelot or standard notation)")
	cmd.Flags().Float64Var(&bpm, "bpm", 0, "Tempo in beats per minute")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Duration in seconds")
	cmd.Flags().Float64Var(&energy, "energy", 0, "Energy, 0-1 or the 1-10 tagging convention")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Analyze immediately after adding")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("bpm")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newTracksListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List library tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				tracks, err := store.ListTracks(ctx)
				if err != nil {
					return err
				}
				vectors, err := store.ListVectors(ctx)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(tracks))
				for _, track := range tracks {
					analyzed := "no"
					keyLabel := track.Raw.Key
					if rec, ok := vectors[track.ID]; ok {
						analyzed = "yes"
						keyLabel = rec.Key.String()
					}
					rows = append(rows, []string{
						strconv.FormatInt(track.ID, 10),
						track.Title,
						track.Artist,
						track.Genre,
						fmt.Sprintf("%.0f", track.Raw.BPM),
						keyLabel,
						analyzed,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Artist", "Genre", "BPM", "Key", "Analyzed"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newTracksRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <track-id>",
		Short: "Remove a track and its derived data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid track id %q", args[0])
			}
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				removed, err := store.RemoveTrack(ctx, catalog.PriorityInteractive, id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("track %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed track %d\n", id)
				return nil
			})
		},
	}
}

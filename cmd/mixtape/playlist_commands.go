package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mixtape/internal/catalog"
	"mixtape/internal/engine"
	"mixtape/internal/playlist"
)

func newPlaylistCommand(cmdCtx *commandContext) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Generate and inspect playlists",
	}

	playlistCmd.AddCommand(newPlaylistGenerateCommand(cmdCtx))
	playlistCmd.AddCommand(newPlaylistListCommand(cmdCtx))
	playlistCmd.AddCommand(newPlaylistShowCommand(cmdCtx))

	return playlistCmd
}

func newPlaylistGenerateCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		durationFlag string
		curveFlag    string
		seedTrack    int64
		surpriseSeed int64
		genre        string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Sequence a playlist under an energy curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := time.ParseDuration(durationFlag)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", durationFlag, err)
			}

			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				params := playlist.Params{
					SeedTrackID:    seedTrack,
					TargetDuration: target,
					SurpriseSeed:   surpriseSeed,
				}
				if curveFlag != "" {
					curve, err := playlist.ParseCurveShape(curveFlag)
					if err != nil {
						return err
					}
					params.Curve = curve
				}
				if genre != "" {
					params.Constraint = func(c playlist.Candidate) bool {
						return c.Genre == genre
					}
				}

				result, err := eng.GeneratePlaylist(ctx, params)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Playlist %s (%s, %s)\n", result.ID, result.Params.Curve, formatDuration(result.TotalDuration))
				printPlaylist(out, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&durationFlag, "duration", "d", "1h", "Target duration, e.g. 90m")
	cmd.Flags().StringVar(&curveFlag, "curve", "", "Energy curve: ascending, descending, peak, wave, flat")
	cmd.Flags().Int64Var(&seedTrack, "seed-track", 0, "Track id to open the set with")
	cmd.Flags().Int64Var(&surpriseSeed, "surprise-seed", 0, "Fix the randomized score component for reproducible output")
	cmd.Flags().StringVar(&genre, "genre", "", "Restrict candidates to one genre")
	return cmd
}

func newPlaylistListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				playlists, err := store.ListPlaylists(ctx)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(playlists))
				for _, p := range playlists {
					rows = append(rows, []string{
						p.ID,
						p.GeneratedAt.Local().Format("2006-01-02 15:04"),
						string(p.Params.Curve),
						strconv.Itoa(len(p.Tracks)),
						formatDuration(p.TotalDuration),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Generated", "Curve", "Tracks", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newPlaylistShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <playlist-id>",
		Short: "Show a stored playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withEngine(cmd.Context(), func(ctx context.Context, eng *engine.Engine, store *catalog.Store) error {
				p, err := store.PlaylistByID(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Playlist %s (%s, %s)\n", p.ID, p.Params.Curve, formatDuration(p.TotalDuration))
				printPlaylist(out, p)
				return nil
			})
		},
	}
}

func printPlaylist(out io.Writer, p *playlist.Playlist) {
	transitions := make(map[int64]string, len(p.Transitions))
	for _, tr := range p.Transitions {
		transitions[tr.ToTrackID] = fmt.Sprintf("%s %.2f", tr.Record.Transition, tr.Record.Score)
	}

	rows := make([][]string, 0, len(p.Tracks))
	for i, track := range p.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			track.Title,
			track.Artist,
			fmt.Sprintf("%.0f", track.Profile.BPM),
			track.Profile.Key.String(),
			fmt.Sprintf("%.2f", track.Profile.Energy),
			transitions[track.TrackID],
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Artist", "BPM", "Key", "Energy", "Transition In"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/chordmatch/pkg/chordmatch"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/chords"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/corpus"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch/recommend"
)

func recommendCommand(a *app) *cobra.Command {
	var (
		chordList string
		req       chordmatch.RecommendRequest
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank songs by how many chords you still need to learn",
		Example: `  chordmatch recommend --chords C,G,Am,F
  chordmatch recommend --chords G,D,Em --genre Rock --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Genre != "" && !corpus.IsGenre(req.Genre) {
				return fmt.Errorf("unknown genre %q (see 'chordmatch genres')", req.Genre)
			}

			out := cmd.OutOrStdout()
			printBanner(out)

			req.Chords = recommend.ParseChordList(chordList)
			for _, c := range req.Chords {
				if !chords.IsChord(c) {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %q is not a chord symbol; no song will contain it\n", c)
				}
			}

			svc, err := a.createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			results, err := svc.Recommend(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("recommend failed: %w", err)
			}

			if len(results) == 0 {
				fmt.Fprintln(out, "📭 No songs match those filters")
				return nil
			}

			fmt.Fprintf(out, "🎸 Top %d song(s) for %s:\n\n", len(results), strings.Join(req.Chords, " "))
			for i, r := range results {
				fmt.Fprintf(out, "%d. \"%s\" by %s (ID: %d, %s)\n", i+1, r.Title, r.Artist, r.SongID, r.Genre)
				fmt.Fprintf(out, "   Chords: %s\n", strings.Join(r.Chords, " "))
				fmt.Fprintf(out, "   To learn: %d | Already known: %d", r.Missing, r.Known)
				if r.RatingAverage != nil {
					fmt.Fprintf(out, " | Rating: %.1f (%d)", *r.RatingAverage, r.RatingCount)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chordList, "chords", "", "Comma-separated chords you can play")
	cmd.Flags().StringVar(&req.Artist, "artist", "", "Artist name contains (case-insensitive)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Song title contains (case-insensitive)")
	cmd.Flags().StringVar(&req.Genre, "genre", "", "Exact genre label (see 'chordmatch genres')")
	cmd.Flags().IntVar(&req.Limit, "limit", 10, "Maximum songs to show (0 = all)")
	return cmd
}

func songCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "song <id>",
		Short: "Show one song with its chords, lyrics and rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid song ID %q", args[0])
			}

			svc, err := a.createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			song, err := svc.GetSong(cmd.Context(), songID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🎵 \"%s\" by %s\n", song.Title, song.Artist)
			fmt.Fprintf(out, "   ID:     %d\n", song.SongID)
			fmt.Fprintf(out, "   Genre:  %s\n", song.Genre)
			fmt.Fprintf(out, "   Chords: %s\n", strings.Join(song.Chords, " "))
			if song.RatingAverage != nil {
				fmt.Fprintf(out, "   Rating: %.1f from %d rating(s)\n", *song.RatingAverage, song.RatingCount)
			} else {
				fmt.Fprintln(out, "   Rating: not rated yet")
			}
			if song.Lyrics != "" {
				fmt.Fprintf(out, "\n%s\n", song.Lyrics)
			}
			return nil
		},
	}
}

func genresCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List genre labels usable with --genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			counts := svc.Stats().Genres
			out := cmd.OutOrStdout()
			for _, g := range svc.Genres() {
				fmt.Fprintf(out, "%-12s %s song(s)\n", g, humanize.Comma(int64(counts[g])))
			}
			return nil
		},
	}
}

func statsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus load statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			st := svc.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📚 Corpus: %s\n", a.settings.CorpusPath)
			fmt.Fprintf(out, "   Rows read:              %s\n", humanize.Comma(int64(st.RowsRead)))
			fmt.Fprintf(out, "   Songs kept:             %s\n", humanize.Comma(int64(st.Kept)))
			fmt.Fprintf(out, "   Dropped (inline):       %s\n", humanize.Comma(int64(st.DroppedInline)))
			fmt.Fprintf(out, "   Dropped (few chords):   %s\n", humanize.Comma(int64(st.DroppedFewChords)))
			fmt.Fprintf(out, "   Fallback extraction:    %s\n", humanize.Comma(int64(st.FallbackUsed)))
			fmt.Fprintf(out, "   Malformed annotations:  %s\n", humanize.Comma(int64(st.MalformedRaw)))

			ratings, err := svc.RatingTotal(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   Ratings stored:         %s\n", humanize.Comma(ratings))

			genres := make([]string, 0, len(st.Genres))
			for g := range st.Genres {
				genres = append(genres, g)
			}
			sort.Slice(genres, func(i, j int) bool {
				if st.Genres[genres[i]] != st.Genres[genres[j]] {
					return st.Genres[genres[i]] > st.Genres[genres[j]]
				}
				return genres[i] < genres[j]
			})
			fmt.Fprintln(out, "\n   Genres:")
			for _, g := range genres {
				share := 0.0
				if st.Kept > 0 {
					share = 100 * float64(st.Genres[g]) / float64(st.Kept)
				}
				fmt.Fprintf(out, "   %-12s %8s  (%s%%)\n", g, humanize.Comma(int64(st.Genres[g])), humanize.FtoaWithDigits(share, 1))
			}
			return nil
		},
	}
}

func rateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <1-5>",
		Short: "Rate a song from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid song ID %q", args[0])
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return chordmatch.ErrInvalidRating
			}

			svc, err := a.createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			sum, err := svc.RateSong(cmd.Context(), songID, rating)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Rated song %d with %d\n", songID, rating)
			if sum.Average != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "   Average: %.2f from %d rating(s)\n", *sum.Average, sum.Count)
			}
			return nil
		},
	}
}

func extractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <text>",
		Short: "Print the chords found in free text",
		Example: `  chordmatch extract "<intro_1>A/C# Dmaj7 <verse>"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found := chords.ExtractText(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%d chord(s): %s\n", len(found), strings.Join(found, " "))
			return nil
		},
	}
}

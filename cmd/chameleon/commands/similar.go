package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/report"
)

func (a *App) similarCommand() *cobra.Command {
	var (
		id        string
		text      string
		threshold float64
		usernames bool
		maxDist   int
	)

	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Find near-duplicate profiles",
		Long: `Similar indexes every profile's bio and captions with MinHash/LSH.

With --id it lists profiles similar to one indexed profile, with --text it
compares free text against every profile, with --usernames it lists
lookalike usernames by edit distance. Without flags it lists every pair at
or above the threshold.`,
		Example: `  chameleon similar --id p1 --threshold 0.7
  chameleon similar --text "travel photography" -f json
  chameleon similar --usernames --max-distance 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			if usernames {
				if !cmd.Flags().Changed("max-distance") {
					maxDist = a.cfg.Similarity.UsernameMaxDistance
				}

				pairs := analysis.SimilarUsernames(snap.Profiles, maxDist)

				return a.render(pairs, report.UsernamesTable(pairs))
			}

			engine, err := analysis.NewEngine(a.cfg.Similarity)
			if err != nil {
				return err
			}

			n := engine.IndexProfiles(snap.Profiles)
			a.logger.DebugContext(cmd.Context(), "profiles indexed", "count", n)

			if !cmd.Flags().Changed("threshold") {
				threshold = engine.Threshold()
			}

			switch {
			case id != "":
				if !engine.Index().Contains(id) {
					return fmt.Errorf("%w: %q", ErrUnknownID, id)
				}

				matches := engine.Similar(id, threshold)

				return a.render(matches, report.MatchesTable(id, matches))
			case text != "":
				matches := engine.SimilarText(text, threshold)

				return a.render(matches, report.MatchesTable("text", matches))
			default:
				pairs := engine.Duplicates(threshold)

				return a.render(pairs, report.DuplicatesTable(pairs))
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "profile id (or username when the profile has no id)")
	flags.StringVar(&text, "text", "", "free text to compare against every profile")
	flags.Float64VarP(&threshold, "threshold", "t", 0, "minimum estimated Jaccard similarity (default from config)")
	flags.BoolVar(&usernames, "usernames", false, "compare usernames by edit distance instead")
	flags.IntVar(&maxDist, "max-distance", 0, "maximum username edit distance (default from config)")
	cmd.MarkFlagsMutuallyExclusive("id", "text", "usernames")

	return cmd
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/report"
)

const defaultTopWords = 10

func (a *App) profilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Analyze social profiles",
	}

	cmd.AddCommand(
		a.profilesEngagementCommand(),
		a.profilesRankCommand(),
		a.profilesWordsCommand(),
		a.profilesLookupCommand(),
		a.profilesPrefixCommand(),
		a.profilesSearchCommand(),
	)

	return cmd
}

func (a *App) directory(cmd *cobra.Command) (*analysis.Directory, error) {
	snap, err := a.load(cmd.Context())
	if err != nil {
		return nil, err
	}

	dir, err := analysis.NewDirectory(snap.Profiles, snap.Events, a.cfg.Bloom)
	if err != nil {
		return nil, err
	}

	a.logger.DebugContext(cmd.Context(), "directory built", "filter_fill", dir.FilterFillRatio())

	return dir, nil
}

func (a *App) profilesEngagementCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engagement",
		Short: "Posts, followers, caption length and top words per profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			rows := analysis.ProfileEngagement(snap.Profiles)

			return a.render(rows, report.EngagementTable(rows))
		},
	}
}

func (a *App) profilesRankCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Rank profiles by reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			rows := analysis.RankProfiles(snap.Profiles)

			return a.render(rows, report.RankTable(rows))
		},
	}
}

func (a *App) profilesWordsCommand() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "words",
		Short: "Most frequent caption words across all profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			items := analysis.CaptionWords(snap.Profiles, k)

			return a.render(items, report.WordsTable(items))
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", defaultTopWords, "number of words")

	return cmd
}

func (a *App) profilesLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup KEY",
		Short: "Find a profile by id, user id or username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.directory(cmd)
			if err != nil {
				return err
			}

			p, ok := dir.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownID, args[0])
			}

			return a.render(p, report.ProfileTable(p))
		},
	}
}

func (a *App) profilesPrefixCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prefix PREFIX",
		Short: "List usernames starting with PREFIX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.directory(cmd)
			if err != nil {
				return err
			}

			names := dir.Usernames(args[0])

			return a.render(names, report.ListTable("usernames "+args[0]+"*", "Username", names))
		},
	}
}

func (a *App) profilesSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search TERM...",
		Short: "List profiles whose bio contains every term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.directory(cmd)
			if err != nil {
				return err
			}

			names := dir.SearchBios(args...)

			return a.render(names, report.ListTable("bio search "+strings.Join(args, " "), "Username", names))
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/report"
)

func (a *App) eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Analyze presence events",
	}

	cmd.AddCommand(
		a.eventsDevicesCommand(),
		a.eventsTransitionsCommand(),
		a.eventsAnomaliesCommand(),
		a.eventsClustersCommand(),
		a.eventsIdentitiesCommand(),
		a.eventsOverviewCommand(),
		a.eventsPhonesCommand(),
	)

	return cmd
}

func (a *App) eventsDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Per-user presence breakdown, device count and average RTT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			rows := analysis.DeviceStats(snap.Events)

			return a.render(rows, report.DevicesTable(rows))
		},
	}
}

func (a *App) eventsTransitionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transitions",
		Short: "Count presence changes per user, most frequent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			rows := analysis.PresenceTransitions(snap.Events)

			return a.render(rows, report.TransitionsTable(rows))
		},
	}
}

func (a *App) eventsAnomaliesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies",
		Short: "Rank events by how far device count and RTT deviate from the mean",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			rows := analysis.RankAnomalies(snap.Events)

			return a.render(rows, report.AnomaliesTable(rows))
		},
	}
}

func (a *App) eventsClustersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "Group device jids that appeared together in an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			groups := analysis.DeviceClusters(snap.Events)

			return a.render(groups, report.GroupsTable("device clusters", groups))
		},
	}
}

func (a *App) eventsIdentitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identities",
		Short: "Link profiles and phone numbers through shared user ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			groups := analysis.IdentityGroups(snap.Profiles, snap.Events)

			return a.render(groups, report.GroupsTable("identity groups", groups))
		},
	}
}

func (a *App) eventsOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Dataset totals and distribution summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			o := analysis.Summarize(snap.Profiles, snap.Events)

			return a.render(o, report.OverviewTable(o))
		},
	}
}

func (a *App) eventsPhonesCommand() *cobra.Command {
	var jids bool

	cmd := &cobra.Command{
		Use:   "phones PREFIX",
		Short: "List phone numbers (or device jids) starting with PREFIX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.directory(cmd)
			if err != nil {
				return err
			}

			if jids {
				items := dir.Devices(args[0])

				return a.render(items, report.ListTable("devices "+args[0]+"*", "JID", items))
			}

			items := dir.Phones(args[0])

			return a.render(items, report.ListTable("phones "+args[0]+"*", "Phone", items))
		},
	}

	cmd.Flags().BoolVar(&jids, "jids", false, "search device jids instead of phone numbers")

	return cmd
}

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/report"
)

const defaultEMAAlpha = 0.3

func (a *App) rttCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rtt",
		Short: "Query presence round-trip times",
		Long: `RTT indexes every positive round-trip time in event order. Positions in
range queries refer to that order, starting at 0.`,
	}

	cmd.AddCommand(
		a.rttSummaryCommand(),
		a.rttRangeCommand(),
		a.rttBetweenCommand(),
		a.rttRollingCommand(),
	)

	return cmd
}

func (a *App) rttIndex(cmd *cobra.Command) (*analysis.RTTIndex, error) {
	snap, err := a.load(cmd.Context())
	if err != nil {
		return nil, err
	}

	return analysis.NewRTTIndex(snap.Events), nil
}

func (a *App) rttSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Describe the RTT distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := a.rttIndex(cmd)
			if err != nil {
				return err
			}

			sum := idx.Summary()

			return a.render(sum, report.SummaryTable("rtt", sum))
		},
	}
}

func (a *App) rttRangeCommand() *cobra.Command {
	var updates []string

	cmd := &cobra.Command{
		Use:   "range L R",
		Short: "Aggregate RTTs at positions L..R inclusive",
		Example: `  chameleon rtt range 0 99
  chameleon rtt range 0 99 --set 5=120 --set 6=80`,
		Args: cobra.ExactArgs(2), //nolint:mnd // L and R.
		RunE: func(cmd *cobra.Command, args []string) error {
			l, r, err := parseIntPair(args[0], args[1])
			if err != nil {
				return err
			}

			idx, err := a.rttIndex(cmd)
			if err != nil {
				return err
			}

			for _, u := range updates {
				i, v, perr := parseAssignment(u)
				if perr != nil {
					return perr
				}

				if !idx.Update(i, v) {
					return fmt.Errorf("%w: --set %s with %d values", ErrOutOfRange, u, idx.Len())
				}
			}

			if l < 0 || l > r || r >= idx.Len() {
				return fmt.Errorf("%w: [%d, %d] with %d values", ErrOutOfRange, l, r, idx.Len())
			}

			rs := idx.Range(l, r)

			return a.render(rs, report.RangeTable(rs))
		},
	}

	cmd.Flags().StringArrayVar(&updates, "set", nil, "overwrite position i with v before querying (i=v, repeatable)")

	return cmd
}

func (a *App) rttBetweenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "between MIN MAX",
		Short: "List events whose RTT lies in [MIN, MAX]",
		Args:  cobra.ExactArgs(2), //nolint:mnd // MIN and MAX.
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, hi, err := parseIntPair(args[0], args[1])
			if err != nil {
				return err
			}

			idx, err := a.rttIndex(cmd)
			if err != nil {
				return err
			}

			events := idx.EventsInRange(lo, hi)

			return a.render(events, report.EventsTable(fmt.Sprintf("rtt in [%d, %d]", lo, hi), events))
		},
	}
}

func (a *App) rttRollingCommand() *cobra.Command {
	var (
		size  int
		alpha float64
		chart string
	)

	cmd := &cobra.Command{
		Use:   "rolling",
		Short: "Rolling-window min, max and average plus an EMA per event",
		Example: `  chameleon rtt rolling --window 20 --alpha 0.2 --chart rtt.html`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("window") {
				size = a.cfg.RTT.WindowSize
			}

			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			points, err := analysis.RollingRTT(snap.Events, size, alpha)
			if err != nil {
				return err
			}

			if chart != "" {
				if err := report.WriteRTTChartFile(chart, points); err != nil {
					return err
				}

				a.logger.InfoContext(cmd.Context(), "chart written", "path", chart, "points", len(points))
			}

			return a.render(points, report.RollingTable(points))
		},
	}

	cmd.Flags().IntVarP(&size, "window", "w", 0, "window size (default from config)")
	cmd.Flags().Float64Var(&alpha, "alpha", defaultEMAAlpha, "EMA smoothing factor in (0, 1]")
	cmd.Flags().StringVar(&chart, "chart", "", "also write an HTML line chart to this path")

	return cmd
}

func parseIntPair(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", a, err)
	}

	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", b, err)
	}

	return x, y, nil
}

func parseAssignment(s string) (int, int, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, fmt.Errorf("parse %q: want i=v", s)
	}

	return parseIntPair(strings.TrimSpace(k), strings.TrimSpace(v))
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/report"
	"github.com/Sumatoshi-tech/chameleon/pkg/version"
)

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Version must work without a readable config.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			output, err := report.ParseFormat(a.format)
			a.output = output

			return err
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			info := version.Get()

			if a.output == report.FormatTable {
				_, err := fmt.Fprintln(a.out, info.String())

				return err
			}

			return a.render(info, report.Table{})
		},
	}
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/report"
	"github.com/Sumatoshi-tech/chameleon/pkg/jsonutil"
	"github.com/Sumatoshi-tech/chameleon/pkg/persist"
)

func (a *App) jsonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Inspect JSON documents",
		Long: `Paths are dot-separated; array elements are addressed by position, so
"posts.0.caption" is the caption of the first post.`,
	}

	cmd.AddCommand(
		a.jsonFlattenCommand(),
		a.jsonKeysCommand(),
		a.jsonGetCommand(),
	)

	return cmd
}

func (a *App) jsonFlattenCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "flatten FILE|-",
		Aliases: []string{"normalize"},
		Short:   "Print one path = value line per leaf",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := readInput(cmd, args, "")
			if err != nil {
				return err
			}

			if a.output == report.FormatTable {
				text, nerr := jsonutil.Normalize(data)
				if nerr != nil {
					return nerr
				}

				_, werr := io.WriteString(a.out, text)

				return werr
			}

			v, err := jsonutil.Parse(data)
			if err != nil {
				return err
			}

			fields := jsonutil.Flatten(v)

			return a.render(fields, report.FieldsTable(args[0], fields))
		},
	}
}

func (a *App) jsonKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys FILE|-",
		Short: "List the path of every object member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := readInput(cmd, args, "")
			if err != nil {
				return err
			}

			keys, err := jsonutil.Keys(data)
			if err != nil {
				return err
			}

			return a.render(keys, report.ListTable("keys "+args[0], "Path", keys))
		},
	}
}

func (a *App) jsonGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE|- PATH",
		Short: "Print the value at PATH",
		Args:  cobra.ExactArgs(2), //nolint:mnd // FILE and PATH.
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := readInput(cmd, args[:1], "")
			if err != nil {
				return err
			}

			v, err := jsonutil.Lookup(data, args[1])
			if err != nil {
				return err
			}

			switch v.(type) {
			case map[string]any, []any:
				if a.output == report.FormatTable {
					return persist.NewJSONCodec().Encode(a.out, v)
				}
			default:
				if a.output == report.FormatTable {
					_, werr := fmt.Fprintln(a.out, jsonutil.Scalar(v))

					return werr
				}
			}

			return a.render(v, report.Table{})
		},
	}
}

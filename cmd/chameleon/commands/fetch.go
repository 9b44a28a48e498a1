package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/report"
	"github.com/Sumatoshi-tech/chameleon/internal/source"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
)

type fetchResult struct {
	ID        string           `json:"id"         yaml:"id"`
	Path      string           `json:"path"       yaml:"path"`
	FetchedAt time.Time        `json:"fetched_at" yaml:"fetched_at"`
	Profiles  int              `json:"profiles"   yaml:"profiles"`
	Events    int              `json:"events"     yaml:"events"`
	Stats     source.LoadStats `json:"stats"      yaml:"stats"`
}

func (a *App) fetchCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Load both tables from the configured source and save a snapshot",
		Long: `Fetch reads profiles and events from the configured source and writes them to
a snapshot file. The codec follows the extension: .json.lz4 (compressed),
.yaml/.yml or .json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			if err := source.SaveSnapshot(out, snap); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			a.logger.InfoContext(cmd.Context(), "snapshot saved", "path", out, "id", snap.ID)

			res := fetchResult{
				ID:        snap.ID.String(),
				Path:      out,
				FetchedAt: snap.FetchedAt,
				Profiles:  len(snap.Profiles),
				Events:    len(snap.Events),
				Stats:     snap.Stats,
			}

			return a.render(res, report.SnapshotTable(snap, time.Now()))
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", config.DefaultSnapshotPath, "snapshot file to write")

	return cmd
}

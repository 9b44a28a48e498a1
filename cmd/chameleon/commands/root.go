// Package commands implements the chameleon CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/report"
	"github.com/Sumatoshi-tech/chameleon/internal/source"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
	"github.com/Sumatoshi-tech/chameleon/pkg/observability"
	"github.com/Sumatoshi-tech/chameleon/pkg/version"
)

var (
	// ErrUnknownID is returned when a queried document is not indexed.
	ErrUnknownID = errors.New("unknown id")
	// ErrOutOfRange is returned for an index range outside the data.
	ErrOutOfRange = errors.New("index out of range")
	// ErrNoInput is returned when a command has nothing to read.
	ErrNoInput = errors.New("no input given")
)

// App carries the state shared by every command.
type App struct {
	configPath string
	format     string
	verbose    bool
	quiet      bool
	noColor    bool
	limit      int

	out    io.Writer
	errOut io.Writer

	cfg       *config.Config
	output    report.Format
	logger    *slog.Logger
	providers observability.Providers
}

// NewRootCommand builds the command tree writing results to out and logs to
// errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	app := &App{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "chameleon",
		Short: "Profile similarity and presence RTT analysis",
		Long: `Chameleon loads social profiles and messenger presence events from a REST
API, PostgreSQL or a snapshot file, then finds near-duplicate profiles with
MinHash/LSH and answers RTT range and rolling-window queries.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  app.setup,
		PersistentPostRunE: app.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.configPath, "config", "c", "", "config file (default: chameleon.yaml in ., ./config, /etc/chameleon)")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&app.quiet, "quiet", "q", false, "suppress logs below error")
	flags.StringVarP(&app.format, "format", "f", string(report.FormatTable), "output format: table, json or yaml")
	flags.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	flags.IntVarP(&app.limit, "limit", "n", 0, "show at most n table rows (0 = all)")

	root.AddCommand(
		app.fetchCommand(),
		app.similarCommand(),
		app.rttCommand(),
		app.profilesCommand(),
		app.eventsCommand(),
		app.compressCommand(),
		app.jsonCommand(),
		app.serveCommand(),
		app.versionCommand(),
	)

	return root
}

func (a *App) setup(cmd *cobra.Command, _ []string) error {
	output, err := report.ParseFormat(a.format)
	if err != nil {
		return err
	}

	a.output = output

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	a.cfg = cfg

	mode := observability.ModeCLI
	if cmd.Name() == "serve" {
		mode = observability.ModeServe
	}

	providers, err := observability.InitWithWriter(a.observabilityConfig(mode), a.errOut)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	a.providers = providers
	a.logger = providers.Logger

	cmd.SetContext(observability.WithLogger(cmd.Context(), a.logger))

	return nil
}

func (a *App) observabilityConfig(mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceName = a.cfg.Observability.ServiceName
	obs.ServiceVersion = version.Get().Version
	obs.Environment = a.cfg.Observability.Environment
	obs.Mode = mode
	obs.OTLPEndpoint = a.cfg.Observability.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obs.OTLPInsecure = a.cfg.Observability.OTLPInsecure
	obs.SampleRatio = a.cfg.Observability.SampleRatio
	obs.LogJSON = a.cfg.Logging.Format == "json"
	obs.LogLevel = observability.ParseLevel(a.cfg.Logging.Level)

	switch {
	case a.quiet:
		obs.LogLevel = slog.LevelError
	case a.verbose:
		obs.LogLevel = slog.LevelDebug
	}

	return obs
}

func (a *App) teardown(cmd *cobra.Command, _ []string) error {
	if a.providers.Shutdown == nil {
		return nil
	}

	if err := a.providers.Shutdown(context.WithoutCancel(cmd.Context())); err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}

	return nil
}

func (a *App) renderer() *report.Renderer {
	return report.New(a.out, a.output,
		report.WithColor(!a.noColor && !color.NoColor),
		report.WithLimit(a.limit),
	)
}

func (a *App) render(data any, t report.Table) error {
	return a.renderer().Render(data, t)
}

// load reads both tables from the configured source.
func (a *App) load(ctx context.Context) (*source.Snapshot, error) {
	ctx, span := a.providers.Tracer.Start(ctx, "chameleon.load")
	defer span.End()

	red, err := observability.NewREDMetrics(a.providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("source metrics: %w", err)
	}

	reader, err := source.Open(ctx, a.cfg.Source, source.WithLogger(a.logger), source.WithMetrics(red))
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", a.cfg.Source.Kind, err)
	}

	defer func() {
		if cerr := reader.Close(); cerr != nil {
			a.logger.WarnContext(ctx, "close source", "error", cerr)
		}
	}()

	snap, err := source.Load(ctx, reader)
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "snapshot loaded",
		"source", a.cfg.Source.Kind,
		"profiles", len(snap.Profiles),
		"events", len(snap.Events),
		"skipped_profiles", snap.Stats.SkippedProfiles,
		"skipped_events", snap.Stats.SkippedEvents,
		"duplicate_events", snap.Stats.DuplicateEvents,
	)

	return snap, nil
}

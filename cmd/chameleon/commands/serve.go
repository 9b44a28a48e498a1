package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/server"
	"github.com/Sumatoshi-tech/chameleon/pkg/observability"
)

func (a *App) serveCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve similarity and RTT queries over HTTP",
		Long: `Serve loads one snapshot from the configured source, builds the similarity
and RTT indexes, and answers HTTP queries until interrupted.

  GET    /healthz, /readyz
  GET    /v1/snapshot
  GET    /v1/similar?id=&threshold=
  POST   /v1/similar/text            {"text": "...", "threshold": 0.5}
  PUT    /v1/documents/{id}          {"text": "..."}
  DELETE /v1/documents/{id}
  GET    /v1/profiles/{key}
  GET    /v1/usernames?prefix=
  GET    /v1/rtt/range?l=&r=
  GET    /v1/rtt/summary
  POST   /v1/rtt/update              {"index": 0, "rtt": 120}
  GET    /metrics                    Prometheus exposition`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}

func (a *App) serve(ctx context.Context) error {
	snap, err := a.load(ctx)
	if err != nil {
		return err
	}

	scrape, mp, err := observability.PrometheusHandler()
	if err != nil {
		return err
	}

	defer func() {
		if serr := mp.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			a.logger.WarnContext(ctx, "metrics shutdown failed", "error", serr)
		}
	}()

	red, err := observability.NewREDMetrics(mp.Meter("chameleon/server"))
	if err != nil {
		return fmt.Errorf("server metrics: %w", err)
	}

	srv, err := server.New(snap, a.cfg,
		server.WithLogger(a.logger),
		server.WithTracer(a.providers.Tracer),
		server.WithMetrics(red),
		server.WithScrapeHandler(scrape),
	)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "serving", "addr", a.cfg.Server.Addr(),
		"profiles", len(snap.Profiles), "events", len(snap.Events))

	return srv.Run(ctx)
}

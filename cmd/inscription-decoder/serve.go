package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/inscription-decoder/internal/metrics"
	"github.com/ironsheep/inscription-decoder/internal/server"
)

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run the decoder as an MCP server. Requests are read from stdin, one
JSON-RPC message per line, and responses are written to stdout. Logs go to
stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New()
	if err != nil {
		return err
	}
	svc, err := a.newService(m.Decoder)
	if err != nil {
		return err
	}

	a.log.Info("inscription decoder starting",
		"version", Version,
		"commit", GitCommit,
		"detector", a.cfg.Detector.Kind,
		"gloss_mode", a.cfg.Gloss.Mode)

	g, gctx := errgroup.WithContext(ctx)
	if addr := a.cfg.Metrics.Listen; addr != "" {
		g.Go(func() error { return m.Serve(gctx, addr) })
	}

	// The stdio loop blocks in a read, so a signal ends the command without
	// waiting for it.
	done := make(chan error, 1)
	srv := server.New(svc, server.Options{Version: Version, Logger: a.log.With("module", "server")})
	go func() { done <- srv.Run(gctx) }()

	var runErr error
	select {
	case runErr = <-done:
	case <-gctx.Done():
	}
	stop()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	a.log.Info("inscription decoder stopped")
	return runErr
}

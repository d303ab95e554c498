package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hazelync/trackdown/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	worker, cat, err := r.ensureWorker()
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := server.NewJobsHandler(cat, worker, r.logger)
	return server.New(cfg, handler, r.logger).Start(ctx)
}

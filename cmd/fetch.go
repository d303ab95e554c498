package main

import (
	"context"
	"fmt"

	"github.com/hazelync/trackdown/internal/shared"
	"github.com/urfave/cli/v3"
)

// Fetch resolves a catalog link and prints the track metadata.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url argument is required", shared.ErrInvalidArgument)
	}

	cat, err := r.ensureCatalog()
	if err != nil {
		return err
	}

	if err := cat.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	r.logger.Info("resolving link", "url", url)
	tracks, err := cat.ResolveCollection(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to resolve link: %w", err)
	}

	if len(tracks) == 1 {
		return r.writeJSON(tracks[0], cmd.Bool("pretty"))
	}
	return r.writeJSON(tracks, cmd.Bool("pretty"))
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazelync/trackdown/internal/shared"
	"github.com/hazelync/trackdown/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive download flow for a playlist or album link.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url argument is required", shared.ErrInvalidArgument)
	}

	// stderr belongs to the TUI while the program runs
	if logger, err := shared.NewFileLogger(filepath.Join(os.TempDir(), "trackdown.log")); err == nil {
		r.logger = logger
	}

	worker, cat, err := r.ensureWorker()
	if err != nil {
		return err
	}

	workers := cmd.Int("workers")
	if workers < 1 {
		workers = r.config.Downloads.Workers
	}

	model := ui.NewModel(ctx, cat, worker, url, workers)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

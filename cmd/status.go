package main

import (
	"context"
	"fmt"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/repositories"
	"github.com/hazelync/trackdown/internal/shared"
	"github.com/urfave/cli/v3"
)

// Status prints recorded job history: a single job by id, or every
// recorded job with --all.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	all := cmd.Bool("all")
	pretty := cmd.Bool("pretty")

	if id == "" && !all {
		return fmt.Errorf("%w: pass a job id or --all", shared.ErrInvalidArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open job history: %w", err)
	}
	repo := repositories.NewJobRepository(db)

	if id != "" {
		record, err := repo.Get(id)
		if err != nil {
			return err
		}
		return r.writeJSON(statusRow(record), pretty)
	}

	records, err := repo.List(map[string]any{})
	if err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, statusRow(record))
	}
	return r.writeJSON(rows, pretty)
}

func statusRow(record *models.JobRecord) map[string]any {
	row := map[string]any{
		"id":         record.ID(),
		"track_id":   record.TrackID,
		"title":      record.Title,
		"artist":     record.Artist,
		"stage":      record.Stage,
		"created_at": record.CreatedAt(),
	}
	if record.ArtifactPath != "" {
		row["artifact_path"] = record.ArtifactPath
		row["file_size_bytes"] = record.FileSizeBytes
		row["bitrate_kbps"] = record.BitrateKbps
	}
	if record.ErrorMessage != "" {
		row["error"] = record.ErrorMessage
	}
	return row
}

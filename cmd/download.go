package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazelync/trackdown/internal/formatter"
	"github.com/hazelync/trackdown/internal/jobs"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
	"github.com/urfave/cli/v3"
)

// Download resolves a link and runs every track through the job pipeline,
// printing per-track outcomes and a final tally.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url argument is required", shared.ErrInvalidArgument)
	}

	worker, cat, err := r.ensureWorker()
	if err != nil {
		return err
	}

	if err := cat.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	tracks, err := cat.ResolveCollection(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to resolve link: %w", err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: link resolved to no tracks", shared.ErrTrackNotFound)
	}

	workers := cmd.Int("workers")
	if workers < 1 {
		workers = r.config.Downloads.Workers
	}
	if workers < 1 {
		workers = 4
	}

	r.writePlain("Downloading %d tracks (%d workers)\n\n", len(tracks), workers)
	statuses := r.runJobs(ctx, worker, tracks, workers)

	summary := summarize(url, statuses)
	r.writePlainln("Downloaded %d/%d tracks", summary.Succeeded(), len(summary.Results))

	if err := r.writeReport(cmd, summary); err != nil {
		return err
	}

	if summary.Succeeded() == 0 {
		return fmt.Errorf("all %d downloads failed", summary.Failed())
	}
	return nil
}

// runJobs registers one job per resolved track and runs them as a batch:
// sequential searches, pooled acquisitions. Outcomes echo in track order.
func (r *Runner) runJobs(ctx context.Context, worker *jobs.Worker, tracks []models.TrackDescriptor, workers int) []jobs.Status {
	store := worker.Store()

	batch := make([]jobs.BatchJob, 0, len(tracks))
	for _, track := range tracks {
		status := store.Create(track)
		batch = append(batch, jobs.BatchJob{ID: status.ID, Track: track})
	}

	worker.ProcessBatch(ctx, batch, workers)

	statuses := make([]jobs.Status, len(batch))
	for i, job := range batch {
		status, _ := store.Get(job.ID)
		statuses[i] = status

		track := status.Track
		if status.Stage == jobs.StageComplete {
			r.writePlain("✓ %s - %s (%s, %d kbps)\n",
				track.Artist, track.Name,
				shared.FormatBytes(status.FileSizeBytes), status.BitrateKbps)
		} else {
			r.writePlain("✗ %s - %s: %s\n", track.Artist, track.Name, status.Error)
		}
	}

	return statuses
}

func (r *Runner) writeReport(cmd *cli.Command, summary *formatter.BatchSummary) error {
	format := cmd.String("report")
	if format == "" {
		return nil
	}
	base := cmd.String("out")

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(summary, base)
		if err != nil {
			return err
		}
		r.writePlain("Report written to %s\n", result.ResultsFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(summary, base)
		if err != nil {
			return err
		}
		r.writePlain("Report written to %s\n", path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(summary, base)
		if err != nil {
			return err
		}
		r.writePlain("Report written to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
	return nil
}

// summarize converts terminal job statuses into a formatter batch.
func summarize(title string, statuses []jobs.Status) *formatter.BatchSummary {
	results := make([]models.AcquisitionResult, 0, len(statuses))
	for _, status := range statuses {
		result := models.AcquisitionResult{
			Track:         status.Track,
			Success:       status.Stage == jobs.StageComplete,
			ArtifactPath:  status.ArtifactPath,
			FileSizeBytes: status.FileSizeBytes,
			BitrateKbps:   status.BitrateKbps,
		}
		if !result.Success {
			result.Err = errors.New(status.Error)
		}
		results = append(results, result)
	}
	return &formatter.BatchSummary{Title: title, Results: results}
}

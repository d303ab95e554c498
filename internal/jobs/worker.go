package jobs

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/catalog"
	"github.com/hazelync/trackdown/internal/download"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/search"
	"github.com/hazelync/trackdown/internal/tag"
)

// Recorder persists terminal job statuses. A nil recorder disables history.
type Recorder interface {
	Record(status Status) error
}

// Worker drives a single job through the full flow: authenticate, resolve,
// search, acquire, tag. Every run terminates the job in complete or error.
type Worker struct {
	catalog  catalog.Catalog
	search   *search.Orchestrator
	pipeline *download.Pipeline
	tagger   *tag.Tagger
	store    *Store
	recorder Recorder
	logger   *log.Logger
}

// NewWorker wires the collaborators for job processing.
func NewWorker(cat catalog.Catalog, orch *search.Orchestrator, pipeline *download.Pipeline, tagger *tag.Tagger, store *Store, recorder Recorder, logger *log.Logger) *Worker {
	return &Worker{
		catalog:  cat,
		search:   orch,
		pipeline: pipeline,
		tagger:   tagger,
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// Store exposes the job store for status readers.
func (w *Worker) Store() *Store {
	return w.store
}

// Process runs the job to a terminal state. It never returns a job stuck in
// a non-terminal stage: any failure, including a panic in a collaborator,
// ends the job in error.
func (w *Worker) Process(ctx context.Context, jobID, urlOrURI string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("job panicked", "job", jobID, "panic", r)
			w.store.Fail(jobID, "internal error")
		}
		w.record(jobID)
	}()

	w.store.Advance(jobID, StageAuthenticating, "Authenticating with the catalog...")
	if err := w.catalog.Authenticate(ctx); err != nil {
		w.fail(jobID, err)
		return
	}

	w.store.Advance(jobID, StageFetching, "Fetching track metadata...")
	desc, err := w.catalog.ResolveTrack(ctx, urlOrURI)
	if err != nil {
		w.fail(jobID, err)
		return
	}
	w.store.SetTrack(jobID, desc)

	w.store.Advance(jobID, StageSearching, "Searching for an audio source...")
	candidate, err := w.search.Find(ctx, desc)
	if err != nil {
		w.fail(jobID, err)
		return
	}

	w.store.Advance(jobID, StageDownloading, "Downloading audio...")
	result := w.pipeline.Acquire(ctx, candidate, desc)
	if !result.Success {
		w.fail(jobID, result.Err)
		return
	}

	w.complete(ctx, jobID, result)
}

// BatchJob pairs a registered job with the descriptor it was resolved to.
type BatchJob struct {
	ID    string
	Track models.TrackDescriptor
}

// ProcessBatch drives a set of already-resolved tracks to terminal states.
// Searches run one at a time because the source collaborator is rate
// sensitive; acquisitions then fan out through the download pool. Every
// submitted job ends terminal and recorded.
func (w *Worker) ProcessBatch(ctx context.Context, batch []BatchJob, workers int) {
	items := make([]download.BatchItem, 0, len(batch))
	pending := make(map[string][]string, len(batch))

	for _, job := range batch {
		w.store.Advance(job.ID, StageSearching, "Searching for an audio source...")
		candidate, err := w.search.Find(ctx, job.Track)
		if err != nil {
			w.fail(job.ID, err)
			w.record(job.ID)
			continue
		}

		w.store.Advance(job.ID, StageDownloading, "Downloading audio...")
		items = append(items, download.BatchItem{Candidate: candidate, Track: job.Track})
		pending[job.Track.ID] = append(pending[job.Track.ID], job.ID)
	}

	// results arrive in completion order; descriptors map them back to jobs
	for _, result := range w.pipeline.Batch(ctx, items, workers) {
		ids := pending[result.Track.ID]
		if len(ids) == 0 {
			continue
		}
		jobID := ids[0]
		pending[result.Track.ID] = ids[1:]

		if !result.Success {
			w.fail(jobID, result.Err)
			w.record(jobID)
			continue
		}
		w.complete(ctx, jobID, result)
		w.record(jobID)
	}
}

// complete tags the artifact and moves the job to its final state. Tagging
// is enrichment, not a reason to discard a valid artifact.
func (w *Worker) complete(ctx context.Context, jobID string, result models.AcquisitionResult) {
	w.store.Advance(jobID, StageProcessing, "Embedding metadata...")
	if err := w.tagger.Embed(ctx, result.ArtifactPath, result.Track); err != nil {
		w.logger.Warn("tagging failed", "job", jobID, "error", err)
	}

	w.store.Complete(jobID, result.ArtifactPath, result.FileSizeBytes, result.BitrateKbps)
	w.logger.Info("job complete", "job", jobID, "artifact", result.ArtifactPath,
		"size", result.FileSizeBytes, "bitrate", result.BitrateKbps)
}

func (w *Worker) fail(jobID string, err error) {
	message := "job failed"
	if err != nil {
		message = err.Error()
	}
	w.logger.Error("job failed", "job", jobID, "error", message)
	w.store.Fail(jobID, message)
}

func (w *Worker) record(jobID string) {
	if w.recorder == nil {
		return
	}
	status, err := w.store.Get(jobID)
	if err != nil || !status.Stage.Terminal() {
		return
	}
	if err := w.recorder.Record(status); err != nil {
		w.logger.Warn("failed to record job history", "job", jobID, "error", err)
	}
}

package repositories

import (
	"fmt"

	"github.com/hazelync/trackdown/internal/jobs"
	"github.com/hazelync/trackdown/internal/models"
)

// HistoryRecorder adapts [JobRepository] to the job worker's Recorder
// contract, persisting each terminal status under its in-memory job id.
type HistoryRecorder struct {
	repo *JobRepository
}

// NewHistoryRecorder wraps a job repository for history recording.
func NewHistoryRecorder(repo *JobRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Record persists a terminal job status.
func (h *HistoryRecorder) Record(status jobs.Status) error {
	if !status.Stage.Terminal() {
		return fmt.Errorf("refusing to record non-terminal job %s", status.ID)
	}

	record := models.NewJobRecord(0, status.Track.ID, status.Track.Name, status.Track.Artist, status.Stage.String())
	record.SetID(status.ID)
	record.ArtifactPath = status.ArtifactPath
	record.FileSizeBytes = status.FileSizeBytes
	record.BitrateKbps = status.BitrateKbps
	record.ErrorMessage = status.Error

	return h.repo.Create(record)
}

var _ jobs.Recorder = (*HistoryRecorder)(nil)

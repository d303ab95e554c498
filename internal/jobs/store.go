package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// Status is the current snapshot of one job. Readers always receive copies;
// the live record never leaves the Store.
type Status struct {
	ID            string                 `json:"id"`
	Stage         Stage                  `json:"-"`
	StageName     string                 `json:"stage"`
	Progress      int                    `json:"progress"`
	Message       string                 `json:"message"`
	Track         models.TrackDescriptor `json:"track"`
	ArtifactPath  string                 `json:"artifact_path,omitempty"`
	FileSizeBytes int64                  `json:"file_size_bytes,omitempty"`
	BitrateKbps   int                    `json:"bitrate_kbps,omitempty"`
	Error         string                 `json:"error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Store owns all job state. Writers to the same job are serialized and stage
// transitions are monotonic: regressions and updates to terminal jobs are
// ignored rather than rejected, since racing late writers are expected.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Status
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Status)}
}

// Create registers a new job in the starting stage and returns its snapshot.
func (s *Store) Create(track models.TrackDescriptor) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	status := &Status{
		ID:        shared.GenerateID(),
		Stage:     StageStarting,
		StageName: StageStarting.String(),
		Progress:  StageStarting.Percent(),
		Message:   "Starting job...",
		Track:     track,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[status.ID] = status
	return *status
}

// Advance moves a job forward to a non-terminal stage. Stage, progress, and
// message change together so a reader never sees a half-applied transition.
func (s *Store) Advance(id string, stage Stage, message string) error {
	if stage.Terminal() {
		return fmt.Errorf("%w: use Complete or Fail for terminal stages", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if status.Stage.Terminal() || stage <= status.Stage {
		return nil
	}

	status.Stage = stage
	status.StageName = stage.String()
	status.Progress = stage.Percent()
	status.Message = message
	status.UpdatedAt = time.Now()
	return nil
}

// SetTrack attaches the resolved descriptor to a job that was submitted by
// link before its metadata was known.
func (s *Store) SetTrack(id string, track models.TrackDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if status.Stage.Terminal() {
		return nil
	}

	status.Track = track
	status.UpdatedAt = time.Now()
	return nil
}

// Complete terminates a job successfully, recording the artifact path and
// its measured metrics. The artifact path is required.
func (s *Store) Complete(id, artifactPath string, sizeBytes int64, bitrateKbps int) error {
	if artifactPath == "" {
		return fmt.Errorf("%w: completed job requires an artifact path", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if status.Stage.Terminal() {
		return nil
	}

	status.Stage = StageComplete
	status.StageName = StageComplete.String()
	status.Progress = StageComplete.Percent()
	status.Message = "Download complete"
	status.ArtifactPath = artifactPath
	status.FileSizeBytes = sizeBytes
	status.BitrateKbps = bitrateKbps
	status.UpdatedAt = time.Now()
	return nil
}

// Fail terminates a job with a non-empty error description.
func (s *Store) Fail(id, message string) error {
	if message == "" {
		message = "job failed"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if status.Stage.Terminal() {
		return nil
	}

	status.Stage = StageError
	status.StageName = StageError.String()
	status.Progress = StageError.Percent()
	status.Message = message
	status.Error = message
	status.UpdatedAt = time.Now()
	return nil
}

// Get returns a snapshot copy of a job's current status.
func (s *Store) Get(id string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.jobs[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return *status, nil
}

// List returns snapshots of every known job.
func (s *Store) List() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]Status, 0, len(s.jobs))
	for _, status := range s.jobs {
		statuses = append(statuses, *status)
	}
	return statuses
}

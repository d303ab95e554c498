package models

import (
	"fmt"
	"time"

	"github.com/hazelync/trackdown/internal/shared"
)

// entity provides the shared lifecycle state for persisted models:
// generated ID, sequence number, timestamps, and soft delete marker.
type entity struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newEntity(sequence int) entity {
	now := time.Now()
	return entity{sequence: sequence, createdAt: now, updatedAt: now}
}

func (e *entity) ID() string                { return e.id }
func (e *entity) SetID(id string)           { e.id = id }
func (e *entity) Sequence() int             { return e.sequence }
func (e *entity) CreatedAt() time.Time      { return e.createdAt }
func (e *entity) UpdatedAt() time.Time      { return e.updatedAt }
func (e *entity) SetUpdatedAt(t time.Time)  { e.updatedAt = t }
func (e *entity) DeletedAt() *time.Time     { return e.deletedAt }
func (e *entity) SetDeletedAt(t *time.Time) { e.deletedAt = t }
func (e *entity) SetCreatedAt(t time.Time)  { e.createdAt = t }

// CachedTrack is a catalog descriptor cached in the local database,
// keyed by catalog id and ISRC so repeat requests skip the catalog API.
type CachedTrack struct {
	entity
	track TrackDescriptor
}

// NewCachedTrack wraps a descriptor for persistence.
func NewCachedTrack(sequence int, track TrackDescriptor) *CachedTrack {
	return &CachedTrack{entity: newEntity(sequence), track: track}
}

// Track returns the cached descriptor value.
func (c *CachedTrack) Track() TrackDescriptor { return c.track }

// CatalogID returns the descriptor's upstream catalog identifier.
func (c *CachedTrack) CatalogID() string { return c.track.ID }

// Validate checks the wrapped descriptor and requires a catalog id.
func (c *CachedTrack) Validate() error {
	if c.track.ID == "" {
		return fmt.Errorf("%w: catalog id is required", shared.ErrInvalidInput)
	}
	return c.track.Validate()
}

// JobRecord is the persisted history entry for a finished job.
// Only terminal jobs are recorded; in-flight state lives in memory.
type JobRecord struct {
	entity
	TrackID       string
	Title         string
	Artist        string
	Stage         string
	ArtifactPath  string
	FileSizeBytes int64
	BitrateKbps   int
	ErrorMessage  string
}

// NewJobRecord constructs a history entry for a finished job.
func NewJobRecord(sequence int, trackID, title, artist, stage string) *JobRecord {
	return &JobRecord{
		entity:  newEntity(sequence),
		TrackID: trackID,
		Title:   title,
		Artist:  artist,
		Stage:   stage,
	}
}

// Validate requires a terminal stage and a message on failed jobs.
func (j *JobRecord) Validate() error {
	switch j.Stage {
	case "complete":
		return nil
	case "error":
		if j.ErrorMessage == "" {
			return fmt.Errorf("%w: failed job requires an error message", shared.ErrInvalidInput)
		}
		return nil
	default:
		return fmt.Errorf("%w: job record stage must be terminal, got %q", shared.ErrInvalidInput, j.Stage)
	}
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// JobRepository persists terminal job records for history. In-flight job
// state lives in the in-memory store; only finished jobs reach the database.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new [models.JobRecord] into the database with generated ID and sequence
func (r *JobRepository) Create(record *models.JobRecord) error {
	sequence, err := NextSequence(r.db, "jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if record.ID() == "" {
		record.SetID(shared.GenerateID())
	}

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO jobs (id, sequence, track_id, title, artist, stage, artifact_path, file_size_bytes, bitrate_kbps, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage any = record.ErrorMessage
	if record.ErrorMessage == "" {
		errorMessage = nil
	}

	_, err = r.db.Exec(query,
		record.ID(),
		sequence,
		record.TrackID,
		record.Title,
		record.Artist,
		record.Stage,
		record.ArtifactPath,
		record.FileSizeBytes,
		record.BitrateKbps,
		errorMessage,
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job record by ID
func (r *JobRepository) Get(id string) (*models.JobRecord, error) {
	query := selectJobs + ` WHERE id = ?`

	record, err := r.scan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return record, err
}

// Update modifies an existing job record in the database
func (r *JobRepository) Update(record *models.JobRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE jobs
		SET stage = ?, artifact_path = ?, file_size_bytes = ?, bitrate_kbps = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		record.Stage,
		record.ArtifactPath,
		record.FileSizeBytes,
		record.BitrateKbps,
		record.ErrorMessage,
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, record.ID())
	}

	return nil
}

// Delete removes a job record by ID
func (r *JobRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}

	return nil
}

// List retrieves job records matching the given criteria, newest first
func (r *JobRepository) List(criteria map[string]any) ([]*models.JobRecord, error) {
	query := selectJobs + ` WHERE 1=1`
	args := []any{}

	if stage, ok := criteria["stage"].(string); ok && stage != "" {
		query += " AND stage = ?"
		args = append(args, stage)
	}

	if trackID, ok := criteria["track_id"].(string); ok && trackID != "" {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var records []*models.JobRecord
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

const selectJobs = `
	SELECT id, sequence, track_id, title, artist, stage, artifact_path, file_size_bytes, bitrate_kbps, error_message, created_at, updated_at
	FROM jobs`

func (r *JobRepository) scan(row rowScanner) (*models.JobRecord, error) {
	var (
		id           string
		sequence     int
		trackID      sql.NullString
		title        sql.NullString
		artist       sql.NullString
		stage        string
		artifactPath sql.NullString
		sizeBytes    int64
		bitrateKbps  int
		errorMessage sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &sequence, &trackID, &title, &artist, &stage, &artifactPath,
		&sizeBytes, &bitrateKbps, &errorMessage, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	record := models.NewJobRecord(sequence, trackID.String, title.String, artist.String, stage)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	record.ArtifactPath = artifactPath.String
	record.FileSizeBytes = sizeBytes
	record.BitrateKbps = bitrateKbps
	record.ErrorMessage = errorMessage.String

	return record, nil
}

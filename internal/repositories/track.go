package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedTrack] for descriptor caching.
//
// Descriptors are cached on every catalog resolve so repeat requests for the
// same track skip the catalog API. Lookups by catalog id and ISRC are
// supported alongside the standard CRUD surface.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(cached *models.CachedTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	cached.SetID(id)

	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track := cached.Track()
	query := `
		INSERT INTO tracks (id, sequence, spotify_id, name, artist, album, album_art_url, isrc, duration_ms, release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.ID,
		track.Name,
		track.Artist,
		track.Album,
		track.AlbumArtURL,
		track.ISRC,
		track.DurationMS,
		track.ReleaseDate,
		cached.CreatedAt(),
		cached.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a cached track by ID, excluding soft-deleted rows
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := selectTracks + ` WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByCatalogID retrieves a cached track by its upstream catalog identifier
func (r *TrackRepository) GetByCatalogID(catalogID string) (*models.CachedTrack, error) {
	query := selectTracks + ` WHERE spotify_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, catalogID))
}

// GetByISRC retrieves a cached track by ISRC code
func (r *TrackRepository) GetByISRC(isrc string) (*models.CachedTrack, error) {
	query := selectTracks + ` WHERE isrc = ? AND deleted_at IS NULL LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, isrc))
}

// Update modifies an existing cached track in the database
func (r *TrackRepository) Update(cached *models.CachedTrack) error {
	if err := cached.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	cached.SetUpdatedAt(now)

	track := cached.Track()
	query := `
		UPDATE tracks
		SET name = ?, artist = ?, album = ?, album_art_url = ?, isrc = ?, duration_ms = ?, release_date = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Name,
		track.Artist,
		track.Album,
		track.AlbumArtURL,
		track.ISRC,
		track.DurationMS,
		track.ReleaseDate,
		now,
		cached.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", cached.ID())
	}

	return nil
}

// Delete soft-deletes a cached track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all cached tracks matching the given criteria, excluding soft-deleted rows
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := selectTracks + ` WHERE deleted_at IS NULL`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		cached, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, cached)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

const selectTracks = `
	SELECT id, sequence, spotify_id, name, artist, album, album_art_url, isrc, duration_ms, release_date, created_at, updated_at, deleted_at
	FROM tracks`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TrackRepository) scanOne(row *sql.Row) (*models.CachedTrack, error) {
	cached, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: track", shared.ErrTrackNotFound)
	}
	return cached, err
}

func (r *TrackRepository) scan(row rowScanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		desc      models.TrackDescriptor
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &desc.ID, &desc.Name, &desc.Artist, &desc.Album,
		&desc.AlbumArtURL, &desc.ISRC, &desc.DurationMS, &desc.ReleaseDate,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	cached := models.NewCachedTrack(sequence, desc)
	cached.SetID(id)
	cached.SetCreatedAt(createdAt)
	cached.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		cached.SetDeletedAt(&deletedAt.Time)
	}

	return cached, nil
}

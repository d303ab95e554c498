package models

import (
	"fmt"
	"strings"

	"github.com/hazelync/trackdown/internal/shared"
)

// TrackDescriptor is catalog metadata identifying a single track to resolve.
// Descriptors are treated as immutable values once constructed.
type TrackDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtURL string `json:"album_art_url,omitempty"`
	ISRC        string `json:"isrc,omitempty"`
	DurationMS  int    `json:"duration_ms"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// Validate checks that the descriptor carries enough data to search with.
func (d TrackDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: track name is required", shared.ErrInvalidInput)
	}
	if d.Artist == "" {
		return fmt.Errorf("%w: track artist is required", shared.ErrInvalidInput)
	}
	if d.DurationMS < 0 {
		return fmt.Errorf("%w: duration cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

// DurationSec returns the track duration in whole seconds.
func (d TrackDescriptor) DurationSec() int {
	return d.DurationMS / 1000
}

// Filename returns a filesystem-safe base name of the form "artist - name",
// without an extension. Characters outside alphanumerics, space, hyphen and
// underscore are dropped.
func (d TrackDescriptor) Filename() string {
	return sanitizeFilename(fmt.Sprintf("%s - %s", d.Artist, d.Name))
}

func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SearchCandidate is a single scored source located by the search provider.
type SearchCandidate struct {
	SourceURL   string  `json:"source_url"`
	Title       string  `json:"title"`
	DurationSec int     `json:"duration_sec"`
	Popularity  int64   `json:"popularity"`
	Score       float64 `json:"score"`
}

// AcquisitionResult is the outcome of one download attempt. It carries the
// descriptor it was produced for so batch consumers can reassociate results
// regardless of completion order.
type AcquisitionResult struct {
	Track         TrackDescriptor `json:"track"`
	Success       bool            `json:"success"`
	ArtifactPath  string          `json:"artifact_path,omitempty"`
	FileSizeBytes int64           `json:"file_size_bytes,omitempty"`
	BitrateKbps   int             `json:"bitrate_kbps,omitempty"`
	Err           error           `json:"-"`
}

// ErrorMessage returns the failure reason, or an empty string on success.
func (r AcquisitionResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

const (
	defaultBitrateKbps = 192
	prefixMatchLen     = 20
)

// Pipeline turns a chosen candidate into a validated audio artifact on disk.
type Pipeline struct {
	fetcher Fetcher
	prober  Prober
	logger  *log.Logger

	dir        string
	minSize    int64
	minBitrate int
	timeout    time.Duration
}

// NewPipeline wires a fetcher and prober with the download configuration.
func NewPipeline(fetcher Fetcher, prober Prober, cfg shared.DownloadsConfig, logger *log.Logger) *Pipeline {
	timeout := cfg.FetchTimeout()
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	return &Pipeline{
		fetcher:    fetcher,
		prober:     prober,
		logger:     logger,
		dir:        cfg.Dir,
		minSize:    cfg.MinFileSizeBytes,
		minBitrate: cfg.MinBitrateKbps,
		timeout:    timeout,
	}
}

// Acquire fetches and validates the audio for one (candidate, descriptor)
// pair. A valid artifact already on disk short-circuits the fetch entirely;
// invalid artifacts are deleted on every failure path so the idempotency
// check stays trustworthy.
func (p *Pipeline) Acquire(ctx context.Context, candidate models.SearchCandidate, desc models.TrackDescriptor) models.AcquisitionResult {
	result := models.AcquisitionResult{Track: desc}
	target := p.TargetPath(desc)

	if _, err := os.Stat(target); err == nil {
		size, bitrate, err := p.validate(ctx, target, desc)
		if err == nil {
			p.logger.Debug("artifact already valid, skipping fetch", "path", target)
			result.Success = true
			result.ArtifactPath = target
			result.FileSizeBytes = size
			result.BitrateKbps = bitrate
			return result
		}
		p.logger.Warn("existing artifact invalid, refetching", "path", target, "error", err)
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		result.Err = fmt.Errorf("failed to create download directory: %w", err)
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	template := filepath.Join(p.dir, desc.Filename()+".%(ext)s")
	if err := p.fetcher.Fetch(fetchCtx, candidate.SourceURL, template); err != nil {
		result.Err = err
		return result
	}

	path, err := p.locate(target, desc)
	if err != nil {
		result.Err = err
		return result
	}

	size, bitrate, err := p.validate(ctx, path, desc)
	if err != nil {
		// measured values kept for diagnostics
		result.FileSizeBytes = size
		result.BitrateKbps = bitrate
		result.Err = err
		return result
	}

	result.Success = true
	result.ArtifactPath = path
	result.FileSizeBytes = size
	result.BitrateKbps = bitrate
	return result
}

// TargetPath returns the canonical artifact path for a descriptor.
func (p *Pipeline) TargetPath(desc models.TrackDescriptor) string {
	return filepath.Join(p.dir, desc.Filename()+".mp3")
}

// locate finds the fetched artifact. When the fetcher wrote under an
// unexpected name, fall back to a prefix match against the expected filename
// and rename into the canonical path.
func (p *Pipeline) locate(target string, desc models.TrackDescriptor) (string, error) {
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	prefix := desc.Filename()
	if len(prefix) > prefixMatchLen {
		prefix = prefix[:prefixMatchLen]
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read download directory: %v", shared.ErrArtifactMissing, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		found := filepath.Join(p.dir, entry.Name())
		p.logger.Debug("renaming artifact to canonical path", "from", found, "to", target)
		if err := os.Rename(found, target); err != nil {
			return "", fmt.Errorf("%w: rename failed: %v", shared.ErrArtifactMissing, err)
		}
		return target, nil
	}

	return "", fmt.Errorf("%w: no artifact found for %s", shared.ErrArtifactMissing, desc.Filename())
}

// validate checks the artifact against the size and bitrate thresholds,
// deleting it on rejection.
func (p *Pipeline) validate(ctx context.Context, path string, desc models.TrackDescriptor) (int64, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", shared.ErrArtifactMissing, err)
	}

	size := info.Size()
	if size < p.minSize {
		os.Remove(path)
		return size, 0, fmt.Errorf("%w: file size %d below minimum %d bytes", shared.ErrValidationFailed, size, p.minSize)
	}

	bitrate := p.measureBitrate(ctx, path, size, desc)
	if bitrate < p.minBitrate {
		os.Remove(path)
		return size, bitrate, fmt.Errorf("%w: bitrate %d below minimum %d kbps", shared.ErrValidationFailed, bitrate, p.minBitrate)
	}

	return size, bitrate, nil
}

// measureBitrate probes the artifact, estimating from size and duration when
// the probe fails, and assuming a conservative default when even duration is
// unavailable. Missing instrumentation alone never fails validation.
func (p *Pipeline) measureBitrate(ctx context.Context, path string, size int64, desc models.TrackDescriptor) int {
	if bitrate, err := p.prober.BitrateKbps(ctx, path); err == nil && bitrate > 0 {
		return bitrate
	}

	duration, err := p.prober.DurationSec(ctx, path)
	if err != nil || duration <= 0 {
		if desc.DurationSec() > 0 {
			duration = float64(desc.DurationSec())
		} else {
			p.logger.Debug("no duration available, assuming default bitrate", "path", path)
			return defaultBitrateKbps
		}
	}

	return int(float64(size) * 8 / duration / 1000)
}

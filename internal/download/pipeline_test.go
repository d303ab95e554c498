package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

type fakeFetcher struct {
	calls    atomic.Int32
	err      error
	payload  []byte
	filename string // overrides the template-derived name when set
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceURL, outputTemplate string) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	if f.payload == nil {
		return nil
	}

	path := strings.Replace(outputTemplate, "%(ext)s", "mp3", 1)
	if f.filename != "" {
		path = filepath.Join(filepath.Dir(path), f.filename)
	}
	return os.WriteFile(path, f.payload, 0644)
}

type fakeProber struct {
	bitrate     int
	bitrateErr  error
	duration    float64
	durationErr error
}

func (f *fakeProber) BitrateKbps(ctx context.Context, path string) (int, error) {
	return f.bitrate, f.bitrateErr
}

func (f *fakeProber) DurationSec(ctx context.Context, path string) (float64, error) {
	return f.duration, f.durationErr
}

func testPipeline(t *testing.T, fetcher Fetcher, prober Prober) *Pipeline {
	t.Helper()
	cfg := shared.DownloadsConfig{
		Dir:              t.TempDir(),
		MinBitrateKbps:   128,
		MinFileSizeBytes: 1000,
		FetchTimeoutSecs: 5,
	}
	return NewPipeline(fetcher, prober, cfg, shared.NewLogger(io.Discard))
}

func TestPipelineAcquire(t *testing.T) {
	desc := models.TrackDescriptor{
		ID:         "t1",
		Name:       "Blinding Lights",
		Artist:     "The Weeknd",
		DurationMS: 200000,
	}
	candidate := models.SearchCandidate{SourceURL: "https://youtube.example/watch?v=abc"}
	payload := make([]byte, 2000)

	t.Run("fetches and validates", func(t *testing.T) {
		fetcher := &fakeFetcher{payload: payload}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if result.ArtifactPath != pipeline.TargetPath(desc) {
			t.Errorf("unexpected artifact path %q", result.ArtifactPath)
		}
		if result.FileSizeBytes != 2000 {
			t.Errorf("unexpected size %d", result.FileSizeBytes)
		}
		if result.BitrateKbps != 256 {
			t.Errorf("unexpected bitrate %d", result.BitrateKbps)
		}
		if result.Track.ID != desc.ID {
			t.Errorf("result lost its descriptor: %+v", result.Track)
		}
	})

	t.Run("existing valid artifact skips the fetch", func(t *testing.T) {
		fetcher := &fakeFetcher{payload: payload}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		if err := os.WriteFile(pipeline.TargetPath(desc), payload, 0644); err != nil {
			t.Fatalf("failed to seed artifact: %v", err)
		}

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if fetcher.calls.Load() != 0 {
			t.Errorf("expected zero fetch calls, got %d", fetcher.calls.Load())
		}
	})

	t.Run("existing invalid artifact is replaced", func(t *testing.T) {
		fetcher := &fakeFetcher{payload: payload}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		if err := os.WriteFile(pipeline.TargetPath(desc), []byte("tiny"), 0644); err != nil {
			t.Fatalf("failed to seed artifact: %v", err)
		}

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if fetcher.calls.Load() != 1 {
			t.Errorf("expected one fetch call, got %d", fetcher.calls.Load())
		}
	})

	t.Run("undersized artifact is deleted and reported", func(t *testing.T) {
		fetcher := &fakeFetcher{payload: []byte("way too small")}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if result.Success {
			t.Fatal("expected failure")
		}
		if !errors.Is(result.Err, shared.ErrValidationFailed) {
			t.Errorf("expected ErrValidationFailed, got %v", result.Err)
		}
		if result.FileSizeBytes != int64(len("way too small")) {
			t.Errorf("expected measured size in result, got %d", result.FileSizeBytes)
		}
		if _, err := os.Stat(pipeline.TargetPath(desc)); !os.IsNotExist(err) {
			t.Error("expected the invalid artifact to be deleted")
		}
	})

	t.Run("low bitrate artifact is deleted and reported", func(t *testing.T) {
		fetcher := &fakeFetcher{payload: payload}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 64})

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if result.Success {
			t.Fatal("expected failure")
		}
		if !errors.Is(result.Err, shared.ErrValidationFailed) {
			t.Errorf("expected ErrValidationFailed, got %v", result.Err)
		}
		if result.BitrateKbps != 64 {
			t.Errorf("expected measured bitrate in result, got %d", result.BitrateKbps)
		}
		if _, err := os.Stat(pipeline.TargetPath(desc)); !os.IsNotExist(err) {
			t.Error("expected the invalid artifact to be deleted")
		}
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		fetcher := &fakeFetcher{err: fmt.Errorf("%w: exit status 1", shared.ErrFetchFailed)}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if !errors.Is(result.Err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", result.Err)
		}
	})

	t.Run("missing artifact after fetch", func(t *testing.T) {
		fetcher := &fakeFetcher{} // reports success, writes nothing
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if !errors.Is(result.Err, shared.ErrArtifactMissing) {
			t.Errorf("expected ErrArtifactMissing, got %v", result.Err)
		}
	})

	t.Run("prefix match renames a stray artifact", func(t *testing.T) {
		fetcher := &fakeFetcher{payload: payload, filename: desc.Filename() + " [ABC123].mp3"}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		result := pipeline.Acquire(context.Background(), candidate, desc)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if result.ArtifactPath != pipeline.TargetPath(desc) {
			t.Errorf("expected canonical path, got %q", result.ArtifactPath)
		}
		if _, err := os.Stat(pipeline.TargetPath(desc)); err != nil {
			t.Errorf("expected renamed artifact at canonical path: %v", err)
		}
	})
}

func TestMeasureBitrate(t *testing.T) {
	desc := models.TrackDescriptor{Name: "Song", Artist: "Artist", DurationMS: 100000}
	payload := make([]byte, 2500000)

	t.Run("estimates from probed duration when bitrate probe fails", func(t *testing.T) {
		prober := &fakeProber{bitrateErr: errors.New("no bitrate"), duration: 100}
		pipeline := testPipeline(t, &fakeFetcher{payload: payload}, prober)

		result := pipeline.Acquire(context.Background(), models.SearchCandidate{SourceURL: "u"}, desc)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if result.BitrateKbps != 200 {
			t.Errorf("expected estimated 200 kbps, got %d", result.BitrateKbps)
		}
	})

	t.Run("falls back to the descriptor duration", func(t *testing.T) {
		prober := &fakeProber{bitrateErr: errors.New("no bitrate"), durationErr: errors.New("no duration")}
		pipeline := testPipeline(t, &fakeFetcher{payload: payload}, prober)

		result := pipeline.Acquire(context.Background(), models.SearchCandidate{SourceURL: "u"}, desc)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if result.BitrateKbps != 200 {
			t.Errorf("expected estimate from descriptor duration, got %d", result.BitrateKbps)
		}
	})

	t.Run("assumes a conservative default with no duration at all", func(t *testing.T) {
		d := desc
		d.DurationMS = 0
		prober := &fakeProber{bitrateErr: errors.New("no bitrate"), durationErr: errors.New("no duration")}
		pipeline := testPipeline(t, &fakeFetcher{payload: payload}, prober)

		result := pipeline.Acquire(context.Background(), models.SearchCandidate{SourceURL: "u"}, d)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Err)
		}
		if result.BitrateKbps != 192 {
			t.Errorf("expected default 192 kbps, got %d", result.BitrateKbps)
		}
	})
}

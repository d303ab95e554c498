package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// trackingFetcher records peak concurrency across Fetch calls.
type trackingFetcher struct {
	payload []byte
	failFor map[string]bool

	current atomic.Int32
	peak    atomic.Int32
}

func (f *trackingFetcher) Fetch(ctx context.Context, sourceURL, outputTemplate string) error {
	cur := f.current.Add(1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	defer f.current.Add(-1)

	if f.failFor[sourceURL] {
		return fmt.Errorf("%w: exit status 1", shared.ErrFetchFailed)
	}
	return os.WriteFile(strings.Replace(outputTemplate, "%(ext)s", "mp3", 1), f.payload, 0644)
}

func batchItems(n int) []BatchItem {
	items := make([]BatchItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, BatchItem{
			Candidate: models.SearchCandidate{SourceURL: fmt.Sprintf("https://youtube.example/watch?v=%d", i)},
			Track: models.TrackDescriptor{
				ID:         fmt.Sprintf("track%d", i),
				Name:       fmt.Sprintf("Song %d", i),
				Artist:     "Artist",
				DurationMS: 200000,
			},
		})
	}
	return items
}

func TestBatch(t *testing.T) {
	payload := make([]byte, 2000)

	t.Run("every item yields exactly one result", func(t *testing.T) {
		fetcher := &trackingFetcher{payload: payload}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		items := batchItems(6)
		results := pipeline.Batch(context.Background(), items, 2)

		if len(results) != 6 {
			t.Fatalf("expected 6 results, got %d", len(results))
		}

		seen := map[string]int{}
		for _, res := range results {
			seen[res.Track.ID]++
			if !res.Success {
				t.Errorf("unexpected failure for %s: %v", res.Track.ID, res.Err)
			}
		}
		for _, item := range items {
			if seen[item.Track.ID] != 1 {
				t.Errorf("descriptor %s appeared %d times", item.Track.ID, seen[item.Track.ID])
			}
		}
	})

	t.Run("respects the concurrency limit", func(t *testing.T) {
		fetcher := &trackingFetcher{payload: payload}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		pipeline.Batch(context.Background(), batchItems(8), 3)

		if peak := fetcher.peak.Load(); peak > 3 {
			t.Errorf("observed %d concurrent fetches, limit was 3", peak)
		}
	})

	t.Run("one failure does not abort siblings", func(t *testing.T) {
		fetcher := &trackingFetcher{
			payload: payload,
			failFor: map[string]bool{"https://youtube.example/watch?v=1": true},
		}
		pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

		results := pipeline.Batch(context.Background(), batchItems(4), 2)
		if len(results) != 4 {
			t.Fatalf("expected 4 results, got %d", len(results))
		}

		failures := 0
		for _, res := range results {
			if !res.Success {
				failures++
				if res.Track.ID != "track1" {
					t.Errorf("unexpected failed item %s", res.Track.ID)
				}
				if res.ErrorMessage() == "" {
					t.Error("failed result missing its error message")
				}
			}
		}
		if failures != 1 {
			t.Errorf("expected exactly 1 failure, got %d", failures)
		}
	})

	t.Run("empty input yields no results", func(t *testing.T) {
		pipeline := testPipeline(t, &trackingFetcher{payload: payload}, &fakeProber{bitrate: 256})
		if results := pipeline.Batch(context.Background(), nil, 4); results != nil {
			t.Errorf("expected nil results, got %v", results)
		}
	})

	t.Run("cancelled context still yields a result per item", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		pipeline := testPipeline(t, &trackingFetcher{payload: payload}, &fakeProber{bitrate: 256})
		results := pipeline.Batch(ctx, batchItems(3), 2)

		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		for _, res := range results {
			if res.Success {
				// idempotency can still succeed without touching the fetcher
				if _, err := os.Stat(res.ArtifactPath); err != nil {
					t.Errorf("successful result without artifact: %v", err)
				}
			} else if res.Err == nil {
				t.Error("failed result missing error")
			}
		}
	})
}

func TestBatchWorkerClamp(t *testing.T) {
	payload := make([]byte, 2000)
	fetcher := &trackingFetcher{payload: payload}
	pipeline := testPipeline(t, fetcher, &fakeProber{bitrate: 256})

	results := pipeline.Batch(context.Background(), batchItems(5), 0)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if peak := fetcher.peak.Load(); peak > 4 {
		t.Errorf("default worker count should cap at 4, observed %d", peak)
	}

	for _, res := range results {
		if res.ArtifactPath != "" && filepath.Dir(res.ArtifactPath) == "" {
			t.Errorf("unexpected artifact path %q", res.ArtifactPath)
		}
	}
}

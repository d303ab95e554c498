package download

import (
	"context"
	"fmt"
	"sync"

	"github.com/hazelync/trackdown/internal/models"
)

// BatchItem pairs a chosen candidate with the descriptor it was found for.
type BatchItem struct {
	Candidate models.SearchCandidate
	Track     models.TrackDescriptor
}

// Batch acquires every item through a bounded worker pool and returns one
// result per submitted item. Failures are isolated; a failed item never
// aborts its siblings. Completion order is unconstrained, so results carry
// their descriptors rather than relying on input positions.
func (p *Pipeline) Batch(ctx context.Context, items []BatchItem, workers int) []models.AcquisitionResult {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 4
	}
	if workers > 10 {
		workers = 10
	}

	jobs := make(chan BatchItem, len(items))
	results := make(chan models.AcquisitionResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.acquireWorker(ctx, &wg, jobs, results)
	}

	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]models.AcquisitionResult, 0, len(items))
	for res := range results {
		collected = append(collected, res)
	}
	return collected
}

// acquireWorker drains the jobs channel, emitting a result for every item
// even when the batch context is cancelled mid-run.
func (p *Pipeline) acquireWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan BatchItem, results chan<- models.AcquisitionResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- models.AcquisitionResult{
				Track: job.Track,
				Err:   fmt.Errorf("batch cancelled: %w", ctx.Err()),
			}
			continue
		default:
		}

		results <- p.Acquire(ctx, job.Candidate, job.Track)
	}
}

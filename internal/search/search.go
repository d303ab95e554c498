package search

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
	"golang.org/x/time/rate"
)

// Result is one raw entry returned by a search provider, before scoring.
type Result struct {
	SourceURL   string
	Title       string
	DurationSec int
	Popularity  int64
}

// Provider abstracts the search backend. An empty slice means no results;
// errors are reserved for transport or process failures.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Orchestrator escalates through the query ladder until a candidate clears
// the acceptance score, falling back to the best candidate seen anywhere.
type Orchestrator struct {
	provider Provider
	scorer   Scorer
	limiter  *rate.Limiter
	logger   *log.Logger

	maxAttempts int
	maxResults  int
	minScore    float64
	backoff     time.Duration
}

// NewOrchestrator wires a provider and scorer with the search configuration.
func NewOrchestrator(provider Provider, cfg shared.SearchConfig, logger *log.Logger) *Orchestrator {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Orchestrator{
		provider:    provider,
		scorer:      NewScorer(cfg.DurationTolerance),
		limiter:     limiter,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		maxResults:  cfg.MaxResults,
		minScore:    cfg.MinScore,
		backoff:     cfg.Backoff(),
	}
}

// Find resolves the descriptor to the best available candidate.
//
// Each query attempt scores every result and keeps the attempt's best. A
// candidate meeting the acceptance score returns immediately; otherwise the
// ladder continues and the globally best candidate is returned once the
// attempt budget runs out. ErrNoMatchFound is returned only when no attempt
// produced any result at all.
func (o *Orchestrator) Find(ctx context.Context, desc models.TrackDescriptor) (models.SearchCandidate, error) {
	queries := Queries(desc)
	attempts := o.maxAttempts
	if attempts <= 0 || attempts > len(queries) {
		attempts = len(queries)
	}

	var best models.SearchCandidate
	found := false

	for i := 0; i < attempts; i++ {
		query := queries[i]

		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return models.SearchCandidate{}, err
			}
		}

		results, err := o.provider.Search(ctx, query, o.maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return models.SearchCandidate{}, ctx.Err()
			}
			o.logger.Warn("search attempt failed", "query", query, "error", err)
			if err := o.wait(ctx); err != nil {
				return models.SearchCandidate{}, err
			}
			continue
		}

		if len(results) == 0 {
			o.logger.Debug("no results", "query", query)
			if err := o.wait(ctx); err != nil {
				return models.SearchCandidate{}, err
			}
			continue
		}

		attemptBest := o.bestOf(results, desc)
		if !found || attemptBest.Score > best.Score {
			best = attemptBest
			found = true
		}

		if attemptBest.Score >= o.minScore {
			o.logger.Debug("accepted candidate", "query", query, "score", attemptBest.Score, "url", attemptBest.SourceURL)
			return attemptBest, nil
		}
	}

	if found {
		o.logger.Debug("falling back to best seen candidate", "score", best.Score, "url", best.SourceURL)
		return best, nil
	}

	return models.SearchCandidate{}, fmt.Errorf("%w: %s - %s", shared.ErrNoMatchFound, desc.Artist, desc.Name)
}

// bestOf scores every result and returns the highest as a candidate.
func (o *Orchestrator) bestOf(results []Result, desc models.TrackDescriptor) models.SearchCandidate {
	best := results[0]
	bestScore := o.scorer.Score(best, desc)

	for _, result := range results[1:] {
		if score := o.scorer.Score(result, desc); score > bestScore {
			best = result
			bestScore = score
		}
	}

	return models.SearchCandidate{
		SourceURL:   best.SourceURL,
		Title:       best.Title,
		DurationSec: best.DurationSec,
		Popularity:  best.Popularity,
		Score:       bestScore,
	}
}

func (o *Orchestrator) wait(ctx context.Context) error {
	if o.backoff <= 0 {
		return nil
	}
	select {
	case <-time.After(o.backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package search

import (
	"math"
	"strings"

	"github.com/hazelync/trackdown/internal/models"
)

const (
	weightTitle      = 0.50
	weightDuration   = 0.25
	weightPopularity = 0.15
	weightKeywords   = 0.10

	scoreFloor = 0.1
	scoreCeil  = 1.0
)

var (
	positiveKeywords = []string{"official", "audio", "lyrics", "hd", "hq", "full"}
	negativeKeywords = []string{"cover", "remix", "live", "karaoke", "instrumental", "acoustic", "slowed", "reverb"}
)

// Scorer ranks search results against a descriptor. The zero value is not
// usable; construct with NewScorer.
type Scorer struct {
	// DurationTolerance is the relative duration difference still considered
	// a match, e.g. 0.3 accepts candidates within 30% of the target length.
	DurationTolerance float64
}

// NewScorer creates a scorer with the given duration tolerance. A
// non-positive tolerance falls back to 30%.
func NewScorer(durationTolerance float64) Scorer {
	if durationTolerance <= 0 {
		durationTolerance = 0.3
	}
	return Scorer{DurationTolerance: durationTolerance}
}

// Score rates a single result against the descriptor. The returned value is
// always in [0.1, 1.0] so even the weakest candidate stays rankable as a
// best-effort fallback.
func (s Scorer) Score(result Result, desc models.TrackDescriptor) float64 {
	title := strings.ToLower(result.Title)

	score := weightTitle*titleScore(title, desc) +
		weightDuration*s.durationScore(result.DurationSec, desc.DurationSec()) +
		weightPopularity*popularityScore(result.Popularity) +
		weightKeywords*keywordScore(title, strings.ToLower(desc.Name))

	return math.Min(scoreCeil, math.Max(scoreFloor, score))
}

// titleScore credits 0.25 per artist or track-name word (longer than two
// characters) found in the candidate title, capped at 1.0.
func titleScore(title string, desc models.TrackDescriptor) float64 {
	score := 0.0
	for _, field := range []string{desc.Artist, desc.Name} {
		for _, word := range strings.Fields(strings.ToLower(field)) {
			if len(word) > 2 && strings.Contains(title, word) {
				score += 0.25
			}
		}
	}
	return math.Min(1.0, score)
}

// durationScore is linear inside the tolerance window, decays slowly outside
// it, and gives flat partial credit when either duration is unknown.
func (s Scorer) durationScore(candidateSec, targetSec int) float64 {
	if candidateSec <= 0 || targetSec <= 0 {
		return 0.1
	}

	diff := math.Abs(float64(candidateSec)-float64(targetSec)) / float64(targetSec)
	if diff <= s.DurationTolerance {
		return 1.0 - diff/s.DurationTolerance
	}
	return math.Max(0, 0.5-0.3*diff)
}

// popularityScore maps view counts onto a log scale, with flat partial
// credit when the provider reports nothing.
func popularityScore(popularity int64) float64 {
	if popularity <= 0 {
		return 0.05
	}
	return math.Min(1.0, math.Log10(float64(popularity)+1)/8)
}

// keywordScore starts neutral and nudges up for upload styles that usually
// mean a clean studio rip, down for versions that do not match the track.
// Negative keywords appearing in the track name itself are exempt so a song
// legitimately titled "Live" is not penalized.
func keywordScore(title, trackName string) float64 {
	score := 0.5
	for _, kw := range positiveKeywords {
		if strings.Contains(title, kw) {
			score = math.Min(1.0, score+0.1)
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(title, kw) && !strings.Contains(trackName, kw) {
			score = math.Max(0.0, score-0.15)
		}
	}
	return score
}

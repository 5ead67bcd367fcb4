package audit

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

// SourceRanker manages trust scores for evidence sources. Sources earn an
// initial score from their position in the configured trusted-source list
// and can be adjusted at runtime without ever leaving [0,100].
type SourceRanker struct {
	mu     sync.RWMutex
	scores map[string]int
}

// NewSourceRanker creates an empty ranker.
func NewSourceRanker() *SourceRanker {
	return &SourceRanker{scores: make(map[string]int)}
}

// RegisterRanked registers an ordered source list. The first source starts
// at 100 and each following rank costs 10 points, floored at 50. Already
// registered sources keep their current score.
func (sr *SourceRanker) RegisterRanked(sources []string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	for rank, source := range sources {
		if _, exists := sr.scores[source]; exists {
			continue
		}
		score := 100 - rank*10
		if score < 50 {
			score = 50
		}
		sr.scores[source] = score
	}
}

// Score returns the trust score for a source; unknown sources score 50.
func (sr *SourceRanker) Score(source string) int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	if score, ok := sr.scores[source]; ok {
		return score
	}
	return 50
}

// Adjust applies a permanent adjustment to a source's trust score.
func (sr *SourceRanker) Adjust(source string, delta int, reason string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	score, exists := sr.scores[source]
	if !exists {
		return fmt.Errorf("source not registered: %s", source)
	}

	sr.scores[source] = clampScore(score + delta)

	log.Info().
		Str("source", source).
		Int("adjustment", delta).
		Int("new_score", sr.scores[source]).
		Str("reason", reason).
		Msg("Updated source trust score")

	return nil
}

// clampScore ensures a score is within the valid range [0-100]
func clampScore(score int) int {
	return int(math.Max(0, math.Min(100, float64(score))))
}

package strategy

import (
	"fmt"
	"math"

	"ai-interview-be/internal/entity"
)

// Thresholds are the lower bounds of the three upper tiers. Anything below
// BestCandidate selects the domain fallback.
type Thresholds struct {
	Refine        float64
	Contextual    float64
	BestCandidate float64
}

var DefaultThresholds = Thresholds{
	Refine:        0.7,
	Contextual:    0.4,
	BestCandidate: 0.2,
}

func (t Thresholds) Validate() error {
	if !(0 < t.BestCandidate && t.BestCandidate < t.Contextual && t.Contextual < t.Refine && t.Refine <= 1) {
		return fmt.Errorf("thresholds must satisfy 0 < best_candidate < contextual < refine <= 1, got %.3f/%.3f/%.3f",
			t.BestCandidate, t.Contextual, t.Refine)
	}
	return nil
}

type Selector struct {
	thresholds Thresholds
}

func NewSelector(t Thresholds) (*Selector, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Selector{thresholds: t}, nil
}

// Select maps a score to exactly one strategy. Lower bounds are inclusive.
// Out-of-range scores are clamped first, NaN counts as 0.
func (s *Selector) Select(score float64) entity.Strategy {
	switch {
	case math.IsNaN(score):
		score = 0
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}

	switch {
	case score >= s.thresholds.Refine:
		return entity.StrategyHighConfidenceRefine
	case score >= s.thresholds.Contextual:
		return entity.StrategyContextualGenerate
	case score >= s.thresholds.BestCandidate:
		return entity.StrategyBestCandidateFallback
	default:
		return entity.StrategyDomainFallback
	}
}

package strategy

import (
	"math"
	"testing"

	"ai-interview-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBoundaries(t *testing.T) {
	s, err := NewSelector(DefaultThresholds)
	require.NoError(t, err)

	tests := []struct {
		score float64
		want  entity.Strategy
	}{
		{0.0, entity.StrategyDomainFallback},
		{0.199999, entity.StrategyDomainFallback},
		{0.2, entity.StrategyBestCandidateFallback},
		{0.399999, entity.StrategyBestCandidateFallback},
		{0.4, entity.StrategyContextualGenerate},
		{0.699999, entity.StrategyContextualGenerate},
		{0.7, entity.StrategyHighConfidenceRefine},
		{1.0, entity.StrategyHighConfidenceRefine},
		{-0.5, entity.StrategyDomainFallback},
		{1.5, entity.StrategyHighConfidenceRefine},
		{math.NaN(), entity.StrategyDomainFallback},
		{math.Inf(-1), entity.StrategyDomainFallback},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Select(tt.score), "score %v", tt.score)
	}
}

// Walking the score range upward never drops to a lower tier and visits all
// four.
func TestSelectTotalAndMonotonic(t *testing.T) {
	s, err := NewSelector(DefaultThresholds)
	require.NoError(t, err)

	rank := map[entity.Strategy]int{}
	for i, st := range entity.Strategies {
		rank[st] = len(entity.Strategies) - i
	}

	prev := 0
	seen := map[entity.Strategy]bool{}
	for i := 0; i <= 10000; i++ {
		got := s.Select(float64(i) / 10000)
		r, ok := rank[got]
		require.True(t, ok, "unknown strategy %q", got)
		assert.GreaterOrEqual(t, r, prev)
		prev = r
		seen[got] = true
	}
	assert.Len(t, seen, 4)
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds.Validate())
	assert.Error(t, Thresholds{Refine: 0.4, Contextual: 0.7, BestCandidate: 0.2}.Validate())
	assert.Error(t, Thresholds{Refine: 1.1, Contextual: 0.4, BestCandidate: 0.2}.Validate())
	assert.Error(t, Thresholds{Refine: 0.7, Contextual: 0.4, BestCandidate: 0}.Validate())

	_, err := NewSelector(Thresholds{Refine: 0.5, Contextual: 0.5, BestCandidate: 0.2})
	assert.Error(t, err)
}

package confidence

import (
	"math"
	"testing"

	"ai-interview-be/internal/entity"
	"ai-interview-be/pkg/followup/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(sim float64, domain entity.Domain, qtype entity.QuestionType, text string) entity.FollowUpCandidate {
	return entity.FollowUpCandidate{
		Question:   entity.Question{Id: "q", Text: text, Domain: domain, Type: qtype},
		Similarity: sim,
		Source:     entity.SourceRetrieved,
	}
}

func newAssessor(t *testing.T) *Assessor {
	a, err := NewAssessor(DefaultWeights, 4, 60)
	require.NoError(t, err)
	return a
}

const goodText = "How would you keep a binary search tree balanced?"

func TestAssessEmptyIsZero(t *testing.T) {
	got := newAssessor(t).Assess(Input{Domain: entity.DomainDSA, DesiredType: entity.QuestionTypeCoding})
	assert.Equal(t, 0.0, got.Score)
	assert.Nil(t, got.Best)
}

func TestAssessComponents(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want float64
	}{
		{
			name: "all signals, no rotation",
			in:   Input{Domain: entity.DomainDSA, Candidates: []entity.FollowUpCandidate{candidate(0.82, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)}},
			want: 0.5*0.82 + 0.2 + 0.15,
		},
		{
			name: "domain mismatch",
			in:   Input{Domain: entity.DomainBackend, Candidates: []entity.FollowUpCandidate{candidate(1, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)}},
			want: 0.5 + 0.15,
		},
		{
			name: "too short",
			in:   Input{Domain: entity.DomainDSA, Candidates: []entity.FollowUpCandidate{candidate(0, entity.DomainDSA, entity.QuestionTypeTechnical, "Why?")}},
			want: 0.2,
		},
		{
			name: "rotation mismatch",
			in: Input{
				Domain:      entity.DomainDSA,
				DesiredType: entity.QuestionTypeBehavioral,
				Candidates:  []entity.FollowUpCandidate{candidate(0.6, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)},
			},
			want: 0.3 + 0.2 + 0.15,
		},
		{
			name: "rotation match",
			in: Input{
				Domain:      entity.DomainDSA,
				DesiredType: entity.QuestionTypeTechnical,
				Candidates:  []entity.FollowUpCandidate{candidate(0.6, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)},
			},
			want: 0.3 + 0.2 + 0.15 + 0.15,
		},
	}

	a := newAssessor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Assess(tt.in)
			assert.InDelta(t, tt.want, got.Score, 1e-9)
			require.NotNil(t, got.Best)
		})
	}
}

func TestUnrelatedMatchDoesNotReachSynthesis(t *testing.T) {
	a := newAssessor(t)
	selector, err := strategy.NewSelector(strategy.DefaultThresholds)
	require.NoError(t, err)

	// same domain, well-formed text, nothing in common with the answer
	unrelated := Input{Domain: entity.DomainDSA, Candidates: []entity.FollowUpCandidate{candidate(0, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)}}
	got := a.Assess(unrelated)
	assert.InDelta(t, 0.35, got.Score, 1e-9)
	assert.Equal(t, entity.StrategyBestCandidateFallback, selector.Select(got.Score))

	// the same candidate with a strong match still refines
	related := unrelated
	related.Candidates = []entity.FollowUpCandidate{candidate(0.82, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)}
	assert.Equal(t, entity.StrategyHighConfidenceRefine, selector.Select(a.Assess(related).Score))
}

func TestAssessUsesTopCandidate(t *testing.T) {
	first := candidate(0.9, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)
	first.Question.Id = "first"
	second := candidate(0.1, entity.DomainDSA, entity.QuestionTypeTechnical, goodText)
	second.Question.Id = "second"

	got := newAssessor(t).Assess(Input{Domain: entity.DomainDSA, Candidates: []entity.FollowUpCandidate{first, second}})
	assert.Equal(t, "first", got.Best.Question.Id)
}

func TestAssessClampsDrift(t *testing.T) {
	a := newAssessor(t)
	for _, sim := range []float64{-3, 0, 0.5, 1, 7, math.NaN(), math.Inf(1)} {
		got := a.Assess(Input{Domain: entity.DomainDSA, Candidates: []entity.FollowUpCandidate{candidate(sim, entity.DomainDSA, entity.QuestionTypeCoding, goodText)}})
		assert.GreaterOrEqual(t, got.Score, 0.0)
		assert.LessOrEqual(t, got.Score, 1.0)
	}
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights.Validate())
	assert.Error(t, Weights{Similarity: 0.5, DomainMatch: 0.5, Length: 0.5}.Validate())
	assert.Error(t, Weights{Similarity: 1.2, DomainMatch: -0.2}.Validate())

	_, err := NewAssessor(DefaultWeights, 10, 5)
	assert.Error(t, err)
}

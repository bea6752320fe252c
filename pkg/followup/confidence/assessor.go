package confidence

import (
	"fmt"
	"math"
	"strings"

	"ai-interview-be/internal/entity"
)

// Weights of the composite score. They must sum to 1.
type Weights struct {
	Similarity     float64
	DomainMatch    float64
	Length         float64
	TypePreference float64
}

var DefaultWeights = Weights{
	Similarity:     0.5,
	DomainMatch:    0.2,
	Length:         0.15,
	TypePreference: 0.15,
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"similarity":      w.Similarity,
		"domain_match":    w.DomainMatch,
		"length":          w.Length,
		"type_preference": w.TypePreference,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("confidence weight %s must be non-negative, got %v", name, v)
		}
	}
	sum := w.Similarity + w.DomainMatch + w.Length + w.TypePreference
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("confidence weights must sum to 1, got %v", sum)
	}
	return nil
}

// Input is what the assessor sees for one answer. Candidates must already be
// ordered by descending similarity and exclude asked questions.
type Input struct {
	Candidates  []entity.FollowUpCandidate
	AnswerText  string
	Domain      entity.Domain
	Difficulty  entity.Difficulty
	DesiredType entity.QuestionType // empty when the session has no rotation
}

// Assessment is the composite score and the candidate it was computed from.
type Assessment struct {
	Score float64
	Best  *entity.FollowUpCandidate
}

type Assessor struct {
	weights  Weights
	minWords int
	maxWords int
}

func NewAssessor(weights Weights, minWords, maxWords int) (*Assessor, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if minWords <= 0 || maxWords < minWords {
		return nil, fmt.Errorf("invalid question length range [%d, %d]", minWords, maxWords)
	}
	return &Assessor{weights: weights, minWords: minWords, maxWords: maxWords}, nil
}

// Assess scores the top candidate. No candidates means 0 regardless of
// anything else.
func (a *Assessor) Assess(in Input) Assessment {
	if len(in.Candidates) == 0 {
		return Assessment{Score: 0}
	}

	best := in.Candidates[0]

	score := a.weights.Similarity * clamp01(best.Similarity)
	if best.Question.Domain == in.Domain {
		score += a.weights.DomainMatch
	}
	if a.LengthInRange(best.Question.Text) {
		score += a.weights.Length
	}
	// No rotation, no type credit.
	if in.DesiredType != "" && best.Question.Type == in.DesiredType {
		score += a.weights.TypePreference
	}

	return Assessment{Score: clamp01(score), Best: &best}
}

// LengthInRange reports whether text has an acceptable number of words for an
// interview question.
func (a *Assessor) LengthInRange(text string) bool {
	n := len(strings.Fields(text))
	return n >= a.minWords && n <= a.maxWords
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Strategy is the generation policy chosen from a confidence tier.
type Strategy string

const (
	StrategyHighConfidenceRefine  Strategy = "high_confidence_refine"
	StrategyContextualGenerate    Strategy = "contextual_generate"
	StrategyBestCandidateFallback Strategy = "best_candidate_fallback"
	StrategyDomainFallback        Strategy = "domain_fallback"
)

// Strategies lists the tiers from highest to lowest confidence.
var Strategies = []Strategy{
	StrategyHighConfidenceRefine,
	StrategyContextualGenerate,
	StrategyBestCandidateFallback,
	StrategyDomainFallback,
}

// RequiresSynthesis reports whether the strategy calls the text-generation
// provider.
func (s Strategy) RequiresSynthesis() bool {
	return s == StrategyHighConfidenceRefine || s == StrategyContextualGenerate
}

type CandidateSource string

const (
	SourceRetrieved      CandidateSource = "retrieved"
	SourceSynthesized    CandidateSource = "synthesized"
	SourceDomainFallback CandidateSource = "domain_fallback"
)

// FollowUpCandidate is a retrieved corpus question together with its
// similarity to the answer.
type FollowUpCandidate struct {
	Question   Question
	Similarity float64
	Source     CandidateSource
}

// FollowUp is what the engine hands back for one answer.
type FollowUp struct {
	QuestionId       string
	Question         string
	Type             QuestionType
	Difficulty       Difficulty
	SourceIds        []string
	GenerationMethod Strategy
	Source           CandidateSource
	ConfidenceScore  float64
	CacheHit         bool
}

const synthesizedIdPrefix = "gen-"

// SynthesizedQuestionId derives a stable id for generated text so that the
// asked-set can deduplicate generated questions like corpus ones.
func SynthesizedQuestionId(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized))
	return synthesizedIdPrefix + hex.EncodeToString(sum[:8])
}

package followup

import (
	"context"
	"errors"
	"fmt"

	"ai-interview-be/internal/entity"
	"ai-interview-be/pkg/followup/synthesis"
)

// Request carries one answer through the strategy chain. The engine fills in
// the retrieval and confidence fields before the chain runs.
type Request struct {
	SessionId   string
	AnswerText  string
	Domain      entity.Domain
	Difficulty  entity.Difficulty
	DesiredType entity.QuestionType
	Asked       map[string]bool

	Candidates []entity.FollowUpCandidate
	Best       *entity.FollowUpCandidate
	Confidence float64
}

// Outcome is a question produced by one strategy.
type Outcome struct {
	Question  entity.Question
	Strategy  entity.Strategy
	Source    entity.CandidateSource
	SourceIds []string
}

// Attempter is one tier of the chain.
type Attempter interface {
	Strategy() entity.Strategy
	Attempt(ctx context.Context, req *Request) (*Outcome, error)
}

// Synthesizer is the generation dependency of the two upper tiers.
type Synthesizer interface {
	Synthesize(ctx context.Context, strategy entity.Strategy, sctx synthesis.Context) (string, error)
}

// FallbackTable supplies pre-authored questions.
type FallbackTable interface {
	Pick(domain entity.Domain, difficulty entity.Difficulty, asked map[string]bool, desiredType entity.QuestionType) (entity.Question, error)
}

var errAlreadyAsked = errors.New("generated question already asked")

// Degradation records a tier that failed and why.
type Degradation struct {
	Strategy entity.Strategy
	Err      error
}

// Chain runs attempters in descending confidence order. Starting from the
// selected tier, a failure moves down to the next tier that does not call
// the generation provider, so one answer costs at most one generation call.
type Chain struct {
	attempters []Attempter
}

func NewChain(attempters ...Attempter) *Chain {
	return &Chain{attempters: attempters}
}

// NewDefaultChain wires the four tiers in their fixed order.
func NewDefaultChain(synth Synthesizer, table FallbackTable) *Chain {
	return NewChain(
		&generateAttempter{strategy: entity.StrategyHighConfidenceRefine, synth: synth},
		&generateAttempter{strategy: entity.StrategyContextualGenerate, synth: synth},
		&bestCandidateAttempter{},
		&domainFallbackAttempter{table: table},
	)
}

// Run starts at the tier for start. entity.ErrNoMoreQuestions from the last
// tier is returned as is.
func (c *Chain) Run(ctx context.Context, start entity.Strategy, req *Request) (*Outcome, []Degradation, error) {
	idx := -1
	for i, a := range c.attempters {
		if a.Strategy() == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("no attempter for strategy %s", start)
	}

	var degradations []Degradation
	for i := idx; i < len(c.attempters); i++ {
		a := c.attempters[i]
		if i > idx && a.Strategy().RequiresSynthesis() {
			continue
		}

		out, err := a.Attempt(ctx, req)
		if err == nil {
			return out, degradations, nil
		}
		if errors.Is(err, entity.ErrNoMoreQuestions) {
			return nil, degradations, err
		}
		degradations = append(degradations, Degradation{Strategy: a.Strategy(), Err: err})
	}

	last := errors.New("strategy chain exhausted")
	if n := len(degradations); n > 0 {
		last = degradations[n-1].Err
	}
	return nil, degradations, fmt.Errorf("all strategies failed: %w", last)
}

type generateAttempter struct {
	strategy entity.Strategy
	synth    Synthesizer
}

func (a *generateAttempter) Strategy() entity.Strategy { return a.strategy }

func (a *generateAttempter) Attempt(ctx context.Context, req *Request) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSynthesisTimeout, err)
	}

	sctx := synthesis.Context{
		AnswerText:  req.AnswerText,
		Domain:      req.Domain,
		Difficulty:  req.Difficulty,
		DesiredType: req.DesiredType,
	}
	var sourceIds []string
	qtype := req.DesiredType
	difficulty := req.Difficulty

	if a.strategy == entity.StrategyHighConfidenceRefine {
		if len(req.Candidates) == 0 {
			return nil, entity.ErrNoCandidate
		}
		sctx.Candidates = req.Candidates
		for _, c := range req.Candidates {
			sourceIds = append(sourceIds, c.Question.Id)
		}
		// a refinement keeps the intent, so it keeps the reference's type
		qtype = req.Candidates[0].Question.Type
		difficulty = req.Candidates[0].Question.Difficulty
	}

	text, err := a.synth.Synthesize(ctx, a.strategy, sctx)
	if err != nil {
		return nil, err
	}

	id := entity.SynthesizedQuestionId(text)
	if req.Asked[id] {
		return nil, fmt.Errorf("%w: %s", errAlreadyAsked, id)
	}
	if qtype == "" {
		qtype = entity.QuestionTypeTechnical
	}

	return &Outcome{
		Question: entity.Question{
			Id:         id,
			Text:       text,
			Domain:     req.Domain,
			Difficulty: difficulty,
			Type:       qtype,
		},
		Strategy:  a.strategy,
		Source:    entity.SourceSynthesized,
		SourceIds: sourceIds,
	}, nil
}

type bestCandidateAttempter struct{}

func (a *bestCandidateAttempter) Strategy() entity.Strategy {
	return entity.StrategyBestCandidateFallback
}

func (a *bestCandidateAttempter) Attempt(ctx context.Context, req *Request) (*Outcome, error) {
	for _, c := range req.Candidates {
		if req.Asked[c.Question.Id] {
			continue
		}
		return &Outcome{
			Question:  c.Question,
			Strategy:  entity.StrategyBestCandidateFallback,
			Source:    entity.SourceRetrieved,
			SourceIds: []string{c.Question.Id},
		}, nil
	}
	return nil, entity.ErrNoCandidate
}

type domainFallbackAttempter struct {
	table FallbackTable
}

func (a *domainFallbackAttempter) Strategy() entity.Strategy {
	return entity.StrategyDomainFallback
}

func (a *domainFallbackAttempter) Attempt(ctx context.Context, req *Request) (*Outcome, error) {
	q, err := a.table.Pick(req.Domain, req.Difficulty, req.Asked, req.DesiredType)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Question:  q,
		Strategy:  entity.StrategyDomainFallback,
		Source:    entity.SourceDomainFallback,
		SourceIds: []string{q.Id},
	}, nil
}

package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/followup/cache"
	"ai-interview-be/pkg/followup/confidence"
	"ai-interview-be/pkg/followup/strategy"
	"ai-interview-be/pkg/metrics"
	"ai-interview-be/pkg/retrieval"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Query(ctx context.Context, vector []float32, filter retrieval.Filter, topK int) ([]retrieval.Hit, error)
}

// ResultCache is satisfied by *cache.ResultCache.
type ResultCache interface {
	Get(fingerprint string) (cache.Entry, bool)
	Put(fingerprint string, followUp entity.FollowUp, ttl time.Duration)
}

type Config struct {
	TopK        int
	SoftTarget  time.Duration
	HardCeiling time.Duration
	CacheTTL    time.Duration
}

type Dependencies struct {
	Embedder  Embedder
	Retriever Retriever
	Assessor  *confidence.Assessor
	Selector  *strategy.Selector
	Chain     *Chain
	Cache     ResultCache
	Logger    logger.ILogger
	Metrics   *metrics.Collector
}

// Engine produces one follow-up question per answer. It never returns a
// provider error: every failure degrades to a lower tier, ending at the
// domain fallback table.
type Engine struct {
	deps   Dependencies
	cfg    Config
	tracer trace.Tracer
	now    func() time.Time
}

func NewEngine(deps Dependencies, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.HardCeiling <= 0 {
		cfg.HardCeiling = time.Second
	}
	if cfg.SoftTarget <= 0 || cfg.SoftTarget > cfg.HardCeiling {
		cfg.SoftTarget = 200 * time.Millisecond
	}
	return &Engine{
		deps:   deps,
		cfg:    cfg,
		tracer: otel.Tracer("ai-interview-be/followup"),
		now:    time.Now,
	}
}

// Input is one answer submission as seen by the engine.
type Input struct {
	SessionId     string
	AnswerText    string
	Domain        entity.Domain
	Difficulty    entity.Difficulty
	DesiredType   entity.QuestionType
	Asked         map[string]bool
	MaxCandidates int
}

// Generate returns the next follow-up, or entity.ErrNoMoreQuestions when the
// fallback table is exhausted for the session. The asked-set is read only;
// the caller marks the returned id as asked.
func (e *Engine) Generate(ctx context.Context, in Input) (*entity.FollowUp, error) {
	start := e.now()

	if strings.TrimSpace(in.AnswerText) == "" {
		return nil, entity.ErrEmptyAnswer
	}
	if !in.Domain.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidDomain, in.Domain)
	}
	if in.Difficulty == "" {
		in.Difficulty = entity.DifficultyMedium
	} else if !in.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidDifficulty, in.Difficulty)
	}

	ctx, span := e.tracer.Start(ctx, "followup.generate", trace.WithAttributes(
		attribute.String("session.id", in.SessionId),
		attribute.String("interview.domain", string(in.Domain)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.HardCeiling)
	defer cancel()

	fingerprint := cache.Fingerprint(in.AnswerText, in.Domain)
	if followUp, ok := e.lookupCache(fingerprint, in.Asked); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		e.finish(in, followUp, start)
		return followUp, nil
	}

	req := &Request{
		SessionId:   in.SessionId,
		AnswerText:  in.AnswerText,
		Domain:      in.Domain,
		Difficulty:  in.Difficulty,
		DesiredType: in.DesiredType,
		Asked:       in.Asked,
	}

	req.Candidates = e.retrieve(ctx, in)

	assessment := e.deps.Assessor.Assess(confidence.Input{
		Candidates:  req.Candidates,
		AnswerText:  in.AnswerText,
		Domain:      in.Domain,
		Difficulty:  in.Difficulty,
		DesiredType: in.DesiredType,
	})
	req.Confidence = assessment.Score
	req.Best = assessment.Best

	selected := e.deps.Selector.Select(assessment.Score)
	span.SetAttributes(
		attribute.Float64("confidence.score", assessment.Score),
		attribute.String("strategy.selected", string(selected)),
	)

	outcome, degradations, err := e.deps.Chain.Run(ctx, selected, req)
	for _, d := range degradations {
		reason := degradationReason(d.Err)
		e.deps.Metrics.ObserveDegradation(string(d.Strategy), reason)
		e.deps.Logger.Warn("FOLLOWUP", "Strategy degraded", map[string]interface{}{
			"session_id": in.SessionId,
			"strategy":   d.Strategy,
			"reason":     reason,
			"error":      d.Err.Error(),
		})
	}
	if err != nil {
		if errors.Is(err, entity.ErrNoMoreQuestions) {
			span.SetAttributes(attribute.Bool("followup.exhausted", true))
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	followUp := &entity.FollowUp{
		QuestionId:       outcome.Question.Id,
		Question:         outcome.Question.Text,
		Type:             outcome.Question.Type,
		Difficulty:       outcome.Question.Difficulty,
		SourceIds:        outcome.SourceIds,
		GenerationMethod: outcome.Strategy,
		Source:           outcome.Source,
		ConfidenceScore:  assessment.Score,
	}

	// Fallback-table questions depend on the session's asked-set, not on the
	// answer, so they are never cached.
	if outcome.Strategy != entity.StrategyDomainFallback {
		e.deps.Cache.Put(fingerprint, *followUp, e.cfg.CacheTTL)
	}

	span.SetAttributes(attribute.String("strategy.used", string(outcome.Strategy)))
	e.finish(in, followUp, start)
	return followUp, nil
}

func (e *Engine) lookupCache(fingerprint string, asked map[string]bool) (*entity.FollowUp, bool) {
	entry, ok := e.deps.Cache.Get(fingerprint)
	if ok && asked[entry.FollowUp.QuestionId] {
		// already asked in this session: regenerate
		ok = false
	}
	e.deps.Metrics.ObserveCacheLookup(ok)
	if !ok {
		return nil, false
	}

	followUp := entry.FollowUp
	followUp.SourceIds = append([]string(nil), entry.FollowUp.SourceIds...)
	followUp.CacheHit = true
	return &followUp, true
}

// retrieve embeds the answer and queries the index. Any failure yields no
// candidates, which scores 0 and lands on the domain fallback.
func (e *Engine) retrieve(ctx context.Context, in Input) []entity.FollowUpCandidate {
	embedStart := e.now()
	vector, err := e.deps.Embedder.Embed(ctx, in.AnswerText)
	e.deps.Metrics.ObserveStage("embedding", e.now().Sub(embedStart))
	if err != nil {
		e.deps.Metrics.ObserveDegradation("retrieval", degradationReason(err))
		e.deps.Logger.Warn("FOLLOWUP", "Embedding failed, skipping retrieval", map[string]interface{}{
			"session_id": in.SessionId,
			"error":      err.Error(),
		})
		return nil
	}

	topK := e.cfg.TopK
	if in.MaxCandidates > 0 && in.MaxCandidates < topK {
		topK = in.MaxCandidates
	}

	exclude := make([]string, 0, len(in.Asked))
	for id := range in.Asked {
		exclude = append(exclude, id)
	}

	hits, err := e.deps.Retriever.Query(ctx, vector, retrieval.Filter{
		Domain:     in.Domain,
		ExcludeIds: exclude,
	}, topK)
	if err != nil {
		e.deps.Metrics.ObserveDegradation("retrieval", degradationReason(err))
		return nil
	}

	candidates := make([]entity.FollowUpCandidate, 0, len(hits))
	for _, h := range hits {
		if in.Asked[h.QuestionId] {
			continue
		}
		candidates = append(candidates, entity.FollowUpCandidate{
			Question:   h.Question,
			Similarity: h.Similarity,
			Source:     entity.SourceRetrieved,
		})
	}
	return candidates
}

func (e *Engine) finish(in Input, followUp *entity.FollowUp, start time.Time) {
	elapsed := e.now().Sub(start)
	e.deps.Metrics.ObserveStage("total", elapsed)
	e.deps.Metrics.ObserveFollowUp(string(followUp.GenerationMethod), string(followUp.Source), followUp.CacheHit)

	details := map[string]interface{}{
		"session_id":        in.SessionId,
		"question_id":       followUp.QuestionId,
		"generation_method": followUp.GenerationMethod,
		"confidence":        followUp.ConfidenceScore,
		"cache_hit":         followUp.CacheHit,
		"elapsed_ms":        elapsed.Milliseconds(),
	}
	if elapsed > e.cfg.SoftTarget {
		e.deps.Logger.Warn("FOLLOWUP", "Follow-up exceeded soft latency target", details)
		return
	}
	e.deps.Logger.Debug("FOLLOWUP", "Follow-up generated", details)
}

func degradationReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, entity.ErrRetrievalUnavailable):
		return "retrieval_unavailable"
	case errors.Is(err, entity.ErrSynthesisTimeout):
		return "synthesis_timeout"
	case errors.Is(err, entity.ErrSynthesisUnavailable):
		return "synthesis_unavailable"
	case errors.Is(err, entity.ErrSynthesisInvalidOutput):
		return "synthesis_invalid_output"
	case errors.Is(err, entity.ErrNoCandidate):
		return "no_candidate"
	case errors.Is(err, errAlreadyAsked):
		return "already_asked"
	default:
		return "unknown"
	}
}

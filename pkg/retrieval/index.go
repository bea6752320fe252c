package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/pkg/metrics"

	"github.com/sony/gobreaker"
)

const breakerName = "vector_index"

// Filter narrows a query. Difficulty and Type are optional.
type Filter struct {
	Domain     entity.Domain
	Difficulty entity.Difficulty
	Type       entity.QuestionType
	ExcludeIds []string
}

// Hit is one nearest neighbour.
type Hit struct {
	QuestionId string
	Similarity float64
	Question   entity.Question
}

type Config struct {
	Timeout         time.Duration
	DefaultTopK     int
	BreakerFailures uint32
	BreakerWindow   time.Duration
	BreakerCooldown time.Duration
}

// Index is the vector index client. A failing backend never surfaces as an
// error to the engine beyond entity.ErrRetrievalUnavailable, and an open
// breaker answers immediately without touching the backend.
type Index struct {
	repo    contract.QuestionEmbeddingRepository
	breaker *gobreaker.CircuitBreaker
	cfg     Config
	logger  logger.ILogger
	metrics *metrics.Collector
}

func NewIndex(repo contract.QuestionEmbeddingRepository, cfg Config, log logger.ILogger, m *metrics.Collector) *Index {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 250 * time.Millisecond
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerWindow <= 0 {
		cfg.BreakerWindow = 30 * time.Second
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 20 * time.Second
	}

	idx := &Index{
		repo:    repo,
		cfg:     cfg,
		logger:  log,
		metrics: m,
	}

	idx.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    cfg.BreakerWindow,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("RETRIEVAL", "Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			m.SetBreakerState(name, int(to))
		},
		// A caller giving up is not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return idx
}

// State reports the breaker state for /healthz.
func (i *Index) State() gobreaker.State {
	return i.breaker.State()
}

// Query returns up to topK hits, highest similarity first, ties by ascending
// id. On any backend failure, timeout or open circuit it returns an empty
// result together with an error wrapping entity.ErrRetrievalUnavailable.
func (i *Index) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = i.cfg.DefaultTopK
	}
	if len(vector) == 0 {
		return []Hit{}, fmt.Errorf("%w: empty query vector", entity.ErrRetrievalUnavailable)
	}

	start := time.Now()
	defer func() { i.metrics.ObserveStage("retrieval", time.Since(start)) }()

	out, err := i.breaker.Execute(func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()

		return i.repo.SearchSimilarWithScore(qctx, vector, contract.SimilarityFilter{
			Domain:     filter.Domain,
			Difficulty: filter.Difficulty,
			Type:       filter.Type,
			ExcludeIds: filter.ExcludeIds,
		}, topK)
	})
	if err != nil {
		i.logger.Warn("RETRIEVAL", "Vector index query failed", map[string]interface{}{
			"error":  err.Error(),
			"domain": filter.Domain,
			"state":  i.breaker.State().String(),
		})
		return []Hit{}, fmt.Errorf("%w: %v", entity.ErrRetrievalUnavailable, err)
	}

	scored, _ := out.([]*contract.ScoredQuestion)
	return toHits(scored, filter.ExcludeIds, topK), nil
}

// Upsert indexes a question. It bypasses the breaker: sync runs off the
// request path and should surface real errors.
func (i *Index) Upsert(ctx context.Context, question *entity.Question, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("index question %s: empty vector", question.Id)
	}
	return i.repo.Upsert(ctx, question, vector)
}

func toHits(scored []*contract.ScoredQuestion, exclude []string, topK int) []Hit {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		if s == nil || s.Question == nil {
			continue
		}
		if _, skip := excluded[s.Question.Id]; skip {
			continue
		}
		hits = append(hits, Hit{
			QuestionId: s.Question.Id,
			Similarity: clamp01(s.Similarity),
			Question:   *s.Question,
		})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].QuestionId < hits[b].QuestionId
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
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

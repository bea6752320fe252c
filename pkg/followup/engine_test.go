package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/followup/cache"
	"ai-interview-be/pkg/followup/confidence"
	"ai-interview-be/pkg/followup/fallback"
	"ai-interview-be/pkg/followup/strategy"
	"ai-interview-be/pkg/followup/synthesis"
	"ai-interview-be/pkg/llm"
	"ai-interview-be/pkg/metrics"
	"ai-interview-be/pkg/retrieval"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeRetriever struct {
	hits []retrieval.Hit
	err  error
}

func (f *fakeRetriever) Query(ctx context.Context, vector []float32, filter retrieval.Filter, topK int) ([]retrieval.Hit, error) {
	if f.err != nil {
		return []retrieval.Hit{}, f.err
	}
	excluded := map[string]bool{}
	for _, id := range filter.ExcludeIds {
		excluded[id] = true
	}
	out := []retrieval.Hit{}
	for _, h := range f.hits {
		if excluded[h.QuestionId] || h.Question.Domain != filter.Domain {
			continue
		}
		out = append(out, h)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

type fakeLLM struct {
	mu    sync.Mutex
	reply func(n int) (string, error)
	delay time.Duration
	calls int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.delay > 0 {
		// a stalled provider that ignores cancellation
		time.Sleep(f.delay)
	}
	return f.reply(n)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func hit(id string, sim float64, text string) retrieval.Hit {
	return retrieval.Hit{
		QuestionId: id,
		Similarity: sim,
		Question: entity.Question{
			Id:         id,
			Text:       text,
			Domain:     entity.DomainDSA,
			Difficulty: entity.DifficultyMedium,
			Type:       entity.QuestionTypeTechnical,
		},
	}
}

type harness struct {
	engine *Engine
	llm     *fakeLLM
	cache   *cache.ResultCache
	metrics *metrics.Collector
}

type harnessOpts struct {
	embedder    Embedder
	retriever   Retriever
	llm         *fakeLLM
	synthBudget time.Duration
	ceiling     time.Duration
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()

	if opts.embedder == nil {
		opts.embedder = &fakeEmbedder{}
	}
	if opts.retriever == nil {
		opts.retriever = &fakeRetriever{}
	}
	if opts.llm == nil {
		opts.llm = &fakeLLM{reply: func(int) (string, error) { return "", errors.New("no provider") }}
	}
	if opts.synthBudget == 0 {
		opts.synthBudget = 200 * time.Millisecond
	}
	if opts.ceiling == 0 {
		opts.ceiling = time.Second
	}

	log := logger.NewNopLogger()
	assessor, err := confidence.NewAssessor(confidence.DefaultWeights, 4, 60)
	require.NoError(t, err)
	selector, err := strategy.NewSelector(strategy.DefaultThresholds)
	require.NoError(t, err)
	table, err := fallback.Load("")
	require.NoError(t, err)

	synth := synthesis.NewSynthesizer(opts.llm, synthesis.Config{Budget: opts.synthBudget}, log)
	resultCache := cache.NewResultCache(64, time.Minute)
	collector := metrics.NewCollector()

	engine := NewEngine(Dependencies{
		Embedder:  opts.embedder,
		Retriever: opts.retriever,
		Assessor:  assessor,
		Selector:  selector,
		Chain:     NewDefaultChain(synth, table),
		Cache:     resultCache,
		Logger:    log,
		Metrics:   collector,
	}, Config{TopK: 5, HardCeiling: opts.ceiling, CacheTTL: time.Minute})

	return &harness{engine: engine, llm: opts.llm, cache: resultCache, metrics: collector}
}

func TestBinarySearchTreeAnswerIsRefined(t *testing.T) {
	h := newHarness(t, harnessOpts{
		retriever: &fakeRetriever{hits: []retrieval.Hit{
			hit("dsa-bst-balance", 0.82, "How do you keep a binary search tree balanced under inserts?"),
		}},
		llm: &fakeLLM{reply: func(int) (string, error) {
			return "How would you keep that tree balanced when keys arrive in sorted order?", nil
		}},
	})

	got, err := h.engine.Generate(context.Background(), Input{
		SessionId:  "s1",
		AnswerText: "I used a binary search tree with O(log n) lookups",
		Domain:     entity.DomainDSA,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StrategyHighConfidenceRefine, got.GenerationMethod)
	assert.Equal(t, entity.SourceSynthesized, got.Source)
	assert.NotEmpty(t, got.Question)
	assert.True(t, strings.HasSuffix(got.Question, "?"))
	assert.Equal(t, []string{"dsa-bst-balance"}, got.SourceIds)
	assert.Equal(t, entity.SynthesizedQuestionId(got.Question), got.QuestionId)
	assert.GreaterOrEqual(t, got.ConfidenceScore, 0.7)
	assert.False(t, got.CacheHit)
}

func TestEmptyIndexFallsBackToDomainTable(t *testing.T) {
	h := newHarness(t, harnessOpts{retriever: &fakeRetriever{}})

	in := Input{SessionId: "s1", AnswerText: "I am not sure", Domain: entity.DomainBackend, Difficulty: entity.DifficultyEasy}
	got, err := h.engine.Generate(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 0.0, got.ConfidenceScore)
	assert.Equal(t, entity.StrategyDomainFallback, got.GenerationMethod)
	assert.Equal(t, entity.SourceDomainFallback, got.Source)
	assert.True(t, strings.HasSuffix(got.Question, "?"))
	assert.Equal(t, 0, h.llm.callCount())

	// fallback answers are not cached
	again, err := h.engine.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, again.CacheHit)
}

func TestProviderOutagesDegradeToDomainTable(t *testing.T) {
	tests := []struct {
		name string
		opts harnessOpts
	}{
		{"embedding down", harnessOpts{embedder: &fakeEmbedder{err: entity.ErrEmbeddingUnavailable}}},
		{"index down", harnessOpts{retriever: &fakeRetriever{err: entity.ErrRetrievalUnavailable}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.opts)
			got, err := h.engine.Generate(context.Background(), Input{AnswerText: "answer", Domain: entity.DomainDSA})

			require.NoError(t, err)
			assert.Equal(t, entity.StrategyDomainFallback, got.GenerationMethod)
			assert.Equal(t, 0.0, got.ConfidenceScore)
		})
	}
}

func TestSynthesisStallFallsBackWithinCeiling(t *testing.T) {
	tests := []struct {
		name        string
		synthBudget time.Duration
		ceiling     time.Duration
	}{
		{"synthesis budget expires first", 80 * time.Millisecond, time.Second},
		{"engine ceiling expires first", time.Second, 150 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, harnessOpts{
				retriever: &fakeRetriever{hits: []retrieval.Hit{
					hit("dsa-bst-balance", 0.82, "How do you keep a binary search tree balanced under inserts?"),
				}},
				llm: &fakeLLM{
					delay: 2 * time.Second,
					reply: func(int) (string, error) { return "Too late?", nil },
				},
				synthBudget: tt.synthBudget,
				ceiling:     tt.ceiling,
			})

			start := time.Now()
			got, err := h.engine.Generate(context.Background(), Input{
				AnswerText: "I used a binary search tree with O(log n) lookups",
				Domain:     entity.DomainDSA,
			})
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.Contains(t,
				[]entity.Strategy{entity.StrategyBestCandidateFallback, entity.StrategyDomainFallback},
				got.GenerationMethod)
			assert.Equal(t, "dsa-bst-balance", got.QuestionId)
			assert.Less(t, elapsed, tt.ceiling+200*time.Millisecond)
			assert.Equal(t, 1, h.llm.callCount(), "a failed generation must not trigger a second one")
		})
	}
}

func TestNoRepeatsWhenCorpusIsSmallerThanSessionLength(t *testing.T) {
	h := newHarness(t, harnessOpts{
		retriever: &fakeRetriever{hits: []retrieval.Hit{
			hit("c1", 0.3, "What is the time complexity of heap insertion?"),
			hit("c2", 0.3, "How does a trie store its keys internally?"),
			hit("c3", 0.3, "When is a skip list preferable to a balanced tree?"),
		}},
	})

	asked := map[string]bool{}
	var served []entity.Strategy
	var exhausted bool

	for i := 0; i < 10; i++ {
		got, err := h.engine.Generate(context.Background(), Input{
			SessionId:  "s1",
			AnswerText: "the same short answer every time",
			Domain:     entity.DomainDSA,
			Difficulty: entity.DifficultyMedium,
			Asked:      asked,
		})
		if errors.Is(err, entity.ErrNoMoreQuestions) {
			exhausted = true
			break
		}
		require.NoError(t, err)
		require.False(t, asked[got.QuestionId], "question %s served twice", got.QuestionId)
		asked[got.QuestionId] = true
		served = append(served, got.GenerationMethod)
	}

	table, err := fallback.Load("")
	require.NoError(t, err)

	assert.True(t, exhausted)
	assert.Len(t, asked, 3+table.Size(entity.DomainDSA, entity.DifficultyMedium))
	assert.Equal(t, entity.StrategyBestCandidateFallback, served[0])
	assert.Equal(t, entity.StrategyDomainFallback, served[len(served)-1])
}

func TestCacheIdempotenceAcrossSessions(t *testing.T) {
	h := newHarness(t, harnessOpts{
		retriever: &fakeRetriever{hits: []retrieval.Hit{
			hit("dsa-bst-balance", 0.82, "How do you keep a binary search tree balanced under inserts?"),
		}},
		llm: &fakeLLM{reply: func(n int) (string, error) {
			return fmt.Sprintf("How would you rebalance the tree, variant %d?", n), nil
		}},
	})

	first, err := h.engine.Generate(context.Background(), Input{
		SessionId:  "s1",
		AnswerText: "I used a binary search tree with O(log n) lookups",
		Domain:     entity.DomainDSA,
	})
	require.NoError(t, err)

	second, err := h.engine.Generate(context.Background(), Input{
		SessionId:  "s2",
		AnswerText: "  i used a BINARY search tree   with o(log n) lookups ",
		Domain:     entity.DomainDSA,
	})
	require.NoError(t, err)

	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Question, second.Question)
	assert.Equal(t, first.QuestionId, second.QuestionId)
	assert.Equal(t, 1, h.llm.callCount())
}

func TestCachedQuestionAlreadyAskedIsRegenerated(t *testing.T) {
	h := newHarness(t, harnessOpts{
		retriever: &fakeRetriever{hits: []retrieval.Hit{
			hit("dsa-bst-balance", 0.82, "How do you keep a binary search tree balanced under inserts?"),
		}},
		llm: &fakeLLM{reply: func(n int) (string, error) {
			return fmt.Sprintf("How would you rebalance the tree, variant %d?", n), nil
		}},
	})

	in := Input{SessionId: "s1", AnswerText: "a balanced tree", Domain: entity.DomainDSA, Asked: map[string]bool{}}
	first, err := h.engine.Generate(context.Background(), in)
	require.NoError(t, err)
	in.Asked[first.QuestionId] = true

	second, err := h.engine.Generate(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, second.CacheHit)
	assert.NotEqual(t, first.QuestionId, second.QuestionId)
	assert.Equal(t, 2, h.llm.callCount())

	// the rejected entry is counted once, as a miss
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.CacheLookups.WithLabelValues("miss")))
}

func TestGenerateValidatesInput(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	_, err := h.engine.Generate(context.Background(), Input{AnswerText: "x", Domain: "cooking"})
	assert.ErrorIs(t, err, entity.ErrInvalidDomain)

	_, err = h.engine.Generate(context.Background(), Input{AnswerText: "x", Domain: entity.DomainDSA, Difficulty: "extreme"})
	assert.ErrorIs(t, err, entity.ErrInvalidDifficulty)

	_, err = h.engine.Generate(context.Background(), Input{AnswerText: "  ", Domain: entity.DomainDSA})
	assert.ErrorIs(t, err, entity.ErrEmptyAnswer)
}

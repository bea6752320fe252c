package synthesis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/llm"
)

type Config struct {
	Budget        time.Duration
	MaxTokens     int
	Temperature   float64
	MaxCandidates int
	MinWords      int
	MaxWords      int
	// Model overrides the provider's default model when set.
	Model string
}

// Synthesizer turns a generation strategy into a question through an
// llm.LLMProvider, within a hard wall-clock budget.
type Synthesizer struct {
	provider llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
}

func NewSynthesizer(provider llm.LLMProvider, cfg Config, log logger.ILogger) *Synthesizer {
	if cfg.Budget <= 0 {
		cfg.Budget = 500 * time.Millisecond
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 96
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.4
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = 4
	}
	if cfg.MaxWords < cfg.MinWords {
		cfg.MaxWords = 60
	}
	return &Synthesizer{provider: provider, cfg: cfg, logger: log}
}

// Synthesize produces one question for strategy. Output that fails
// validation is retried once. Errors wrap entity.ErrSynthesisTimeout,
// entity.ErrSynthesisUnavailable or entity.ErrSynthesisInvalidOutput.
func (s *Synthesizer) Synthesize(ctx context.Context, strategy entity.Strategy, sctx Context) (string, error) {
	if !strategy.RequiresSynthesis() {
		return "", fmt.Errorf("strategy %s does not synthesize", strategy)
	}
	if strings.TrimSpace(sctx.AnswerText) == "" {
		return "", fmt.Errorf("%w: empty answer", entity.ErrSynthesisInvalidOutput)
	}
	if strategy == entity.StrategyHighConfidenceRefine && len(sctx.Candidates) == 0 {
		return "", entity.ErrNoCandidate
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Budget)
	defer cancel()

	prompt := NewPromptBuilder(strategy, sctx, s.cfg.MaxCandidates).Build()

	var lastRaw string
	for attempt := 1; attempt <= 2; attempt++ {
		p := prompt
		if attempt > 1 {
			p += retryNotice
		}

		raw, err := s.generate(ctx, p)
		if err != nil {
			return "", err
		}

		if question, ok := s.Clean(raw); ok {
			return question, nil
		}
		lastRaw = raw
		s.logger.Warn("SYNTHESIS", "Rejected generated question", map[string]interface{}{
			"strategy": strategy,
			"attempt":  attempt,
			"output":   truncateForLog(raw),
		})
	}

	return "", fmt.Errorf("%w: %q", entity.ErrSynthesisInvalidOutput, truncateForLog(lastRaw))
}

// generate runs the provider call in its own goroutine so a provider that
// ignores ctx still cannot hold the caller past the budget.
func (s *Synthesizer) generate(ctx context.Context, prompt string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	opts := []llm.Option{
		llm.WithMaxTokens(s.cfg.MaxTokens),
		llm.WithTemperature(s.cfg.Temperature),
	}
	if s.cfg.Model != "" {
		opts = append(opts, llm.WithModel(s.cfg.Model))
	}

	go func() {
		text, err := s.provider.Generate(ctx, prompt, opts...)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", entity.ErrSynthesisTimeout, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) || ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", entity.ErrSynthesisTimeout, r.err)
			}
			return "", fmt.Errorf("%w: %v", entity.ErrSynthesisUnavailable, r.err)
		}
		return r.text, nil
	}
}

var (
	labelPattern = regexp.MustCompile(`(?i)^(follow[- ]?up question|follow[- ]?up|question|q)\s*[:\-]\s*`)
	numberPrefix = regexp.MustCompile(`^\d+[.)]\s+`)
)

// Clean normalizes model output into a single question and reports whether
// the result is acceptable.
func (s *Synthesizer) Clean(raw string) (string, bool) {
	text := strings.TrimSpace(raw)

	// Prefer the first line that already reads as a question.
	if strings.Contains(text, "\n") {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasSuffix(stripWrapping(line), "?") {
				text = line
				break
			}
		}
	}

	text = stripWrapping(text)
	text = labelPattern.ReplaceAllString(text, "")
	text = numberPrefix.ReplaceAllString(text, "")
	text = stripWrapping(text)
	text = strings.Join(strings.Fields(text), " ")

	if text == "" || !strings.HasSuffix(text, "?") {
		return "", false
	}
	words := len(strings.Fields(text))
	if words < s.cfg.MinWords || words > s.cfg.MaxWords {
		return "", false
	}
	return text, true
}

func stripWrapping(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`*“”‘’"))
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

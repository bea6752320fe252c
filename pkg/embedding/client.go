package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
)

const logModule = "EMBEDDING"

// ClientConfig bounds every call made through the Client.
type ClientConfig struct {
	MaxTokens  int
	SoftBudget time.Duration
	Timeout    time.Duration
}

// Client wraps a provider with input truncation and a hard timeout. Every
// failure is reported as entity.ErrEmbeddingUnavailable.
type Client struct {
	provider EmbeddingProvider
	cfg      ClientConfig
	logger   logger.ILogger
}

func NewClient(provider EmbeddingProvider, cfg ClientConfig, log logger.ILogger) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Millisecond
	}
	return &Client{provider: provider, cfg: cfg, logger: log}
}

type embedResult struct {
	values []float32
	err    error
}

// Embed turns text into a query vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, TaskRetrievalQuery)
}

// EmbedDocument turns corpus text into a document vector.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, TaskRetrievalDocument)
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	text, truncated := Truncate(text, c.cfg.MaxTokens)
	if text == "" {
		return nil, fmt.Errorf("%w: empty input", entity.ErrEmbeddingUnavailable)
	}
	if truncated {
		c.logger.Debug(logModule, "input truncated", map[string]interface{}{"max_tokens": c.cfg.MaxTokens})
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan embedResult, 1)
	go func() {
		resp, err := c.provider.Generate(callCtx, text, taskType)
		if err != nil {
			done <- embedResult{err: err}
			return
		}
		done <- embedResult{values: resp.Embedding.Values}
	}()

	// A provider that ignores its context must not hold the caller.
	var res embedResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = embedResult{err: callCtx.Err()}
	}

	elapsed := time.Since(start)
	if c.cfg.SoftBudget > 0 && elapsed > c.cfg.SoftBudget {
		c.logger.Warn(logModule, "embedding exceeded soft budget", map[string]interface{}{
			"elapsed_ms": elapsed.Milliseconds(),
			"budget_ms":  c.cfg.SoftBudget.Milliseconds(),
		})
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", entity.ErrEmbeddingUnavailable, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, res.err)
	}
	if len(res.values) == 0 {
		return nil, fmt.Errorf("%w: provider returned an empty vector", entity.ErrEmbeddingUnavailable)
	}
	return res.values, nil
}

// Truncate keeps the first maxTokens whitespace-separated tokens.
func Truncate(text string, maxTokens int) (string, bool) {
	fields := strings.Fields(text)
	if maxTokens <= 0 || len(fields) <= maxTokens {
		return strings.Join(fields, " "), false
	}
	return strings.Join(fields[:maxTokens], " "), true
}

package bootstrap

import (
	"context"
	"log"

	"ai-interview-be/internal/config"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/implementation"
	"ai-interview-be/pkg/embedding"
	"ai-interview-be/pkg/embedding/jina"
	"ai-interview-be/pkg/metrics"
	"ai-interview-be/pkg/retrieval"

	"gorm.io/gorm"
)

// NewEmbeddingClient builds the configured embedding provider behind the
// token and time bounded client.
func NewEmbeddingClient(ctx context.Context, cfg *config.Config, engineLog logger.ILogger) *embedding.Client {
	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	case "jina":
		provider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	default:
		gemini, err := embedding.NewGeminiProvider(ctx, cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize Gemini embeddings: %v", err)
		}
		provider = gemini
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	return embedding.NewClient(provider, embedding.ClientConfig{
		MaxTokens:  cfg.Engine.EmbeddingMaxTokens,
		SoftBudget: cfg.Engine.EmbeddingSoftBudget,
		Timeout:    cfg.Engine.EmbeddingTimeout,
	}, engineLog)
}

func NewRetrievalIndex(db *gorm.DB, cfg *config.Config, engineLog logger.ILogger, m *metrics.Collector) *retrieval.Index {
	return retrieval.NewIndex(
		implementation.NewQuestionEmbeddingRepository(db),
		retrieval.Config{
			Timeout:         cfg.Engine.RetrievalTimeout,
			DefaultTopK:     cfg.Engine.RetrievalTopK,
			BreakerFailures: cfg.Engine.RetrievalBreakerFailures,
			BreakerWindow:   cfg.Engine.RetrievalBreakerWindow,
			BreakerCooldown: cfg.Engine.RetrievalBreakerCooldown,
		},
		engineLog,
		m,
	)
}

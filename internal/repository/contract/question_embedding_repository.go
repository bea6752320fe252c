package contract

import (
	"context"

	"ai-interview-be/internal/entity"
)

// ScoredQuestion wraps a corpus question with its cosine similarity to the
// query vector.
type ScoredQuestion struct {
	Question   *entity.Question
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

// SimilarityFilter narrows a vector search. Zero values mean "any".
type SimilarityFilter struct {
	Domain     entity.Domain
	Difficulty entity.Difficulty
	Type       entity.QuestionType
	ExcludeIds []string
}

type QuestionEmbeddingRepository interface {
	Upsert(ctx context.Context, question *entity.Question, vector []float32) error
	DeleteByQuestionId(ctx context.Context, questionId string) error
	// SearchSimilarWithScore returns at most limit questions ordered by
	// descending similarity, ties broken by ascending question id.
	SearchSimilarWithScore(ctx context.Context, vector []float32, filter SimilarityFilter, limit int) ([]*ScoredQuestion, error)
}

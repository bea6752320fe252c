package implementation

import (
	"context"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/mapper"
	"ai-interview-be/internal/model"
	"ai-interview-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionMapper
}

func NewQuestionEmbeddingRepository(db *gorm.DB) contract.QuestionEmbeddingRepository {
	return &QuestionEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionMapper(),
	}
}

func (r *QuestionEmbeddingRepositoryImpl) Upsert(ctx context.Context, question *entity.Question, vector []float32) error {
	row := r.mapper.ToEmbeddingModel(question, vector)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "domain", "difficulty", "type", "updated_at"}),
	}).Create(row).Error
}

func (r *QuestionEmbeddingRepositoryImpl) DeleteByQuestionId(ctx context.Context, questionId string) error {
	return r.db.WithContext(ctx).Where("question_id = ?", questionId).Delete(&model.QuestionEmbedding{}).Error
}

func (r *QuestionEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, vector []float32, filter contract.SimilarityFilter, limit int) ([]*contract.ScoredQuestion, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity.
	type result struct {
		model.Question
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	query := r.db.WithContext(ctx).
		Table("question_embeddings").
		Select("questions.*, 1 - (question_embeddings.embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN questions ON questions.id = question_embeddings.question_id").
		Where("questions.deleted_at IS NULL")

	if filter.Domain != "" {
		query = query.Where("question_embeddings.domain = ?", string(filter.Domain))
	}
	if filter.Difficulty != "" {
		query = query.Where("question_embeddings.difficulty = ?", string(filter.Difficulty))
	}
	if filter.Type != "" {
		query = query.Where("question_embeddings.type = ?", string(filter.Type))
	}
	if len(filter.ExcludeIds) > 0 {
		query = query.Where("question_embeddings.question_id NOT IN ?", filter.ExcludeIds)
	}

	err := query.
		Order("similarity DESC").
		Order("questions.id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredQuestion, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredQuestion{
			Question:   r.mapper.ToEntity(&res.Question),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

package mapper

import (
	"encoding/json"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type QuestionMapper struct{}

func NewQuestionMapper() *QuestionMapper {
	return &QuestionMapper{}
}

func (m *QuestionMapper) ToEntity(q *model.Question) *entity.Question {
	if q == nil {
		return nil
	}

	var templates []string
	if len(q.FollowUpTemplates) > 0 {
		_ = json.Unmarshal(q.FollowUpTemplates, &templates)
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.Question{
		Id:                q.Id,
		ModuleId:          q.ModuleId,
		Text:              q.Text,
		Domain:            entity.Domain(q.Domain),
		Difficulty:        entity.Difficulty(q.Difficulty),
		Type:              entity.QuestionType(q.Type),
		FollowUpTemplates: templates,
		LastSyncedAt:      q.LastSyncedAt,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *QuestionMapper) ToModel(q *entity.Question) *model.Question {
	if q == nil {
		return nil
	}

	var templates datatypes.JSON
	if len(q.FollowUpTemplates) > 0 {
		raw, _ := json.Marshal(q.FollowUpTemplates)
		templates = datatypes.JSON(raw)
	}

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.Question{
		Id:                q.Id,
		ModuleId:          q.ModuleId,
		Text:              q.Text,
		Domain:            string(q.Domain),
		Difficulty:        string(q.Difficulty),
		Type:              string(q.Type),
		FollowUpTemplates: templates,
		LastSyncedAt:      q.LastSyncedAt,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *QuestionMapper) ToEntities(questions []*model.Question) []*entity.Question {
	entities := make([]*entity.Question, len(questions))
	for i, q := range questions {
		entities[i] = m.ToEntity(q)
	}
	return entities
}

// ToEmbeddingModel builds the index row for a question. Filter columns are
// copied from the question so they stay in step with metadata corrections.
func (m *QuestionMapper) ToEmbeddingModel(q *entity.Question, vector []float32) *model.QuestionEmbedding {
	return &model.QuestionEmbedding{
		QuestionId:     q.Id,
		Document:       q.Text,
		EmbeddingValue: pgvector.NewVector(vector),
		Domain:         string(q.Domain),
		Difficulty:     string(q.Difficulty),
		Type:           string(q.Type),
	}
}

package contract

import (
	"context"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/specification"
)

type QuestionRepository interface {
	Upsert(ctx context.Context, question *entity.Question) error
	MarkSynced(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

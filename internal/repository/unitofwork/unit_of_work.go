package unitofwork

import (
	"context"

	"ai-interview-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	QuestionRepository() contract.QuestionRepository
	QuestionEmbeddingRepository() contract.QuestionEmbeddingRepository
	InterviewSessionRepository() contract.InterviewSessionRepository
}

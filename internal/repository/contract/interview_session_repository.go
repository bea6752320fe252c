package contract

import (
	"context"

	"ai-interview-be/internal/entity"
)

// InterviewSessionRepository archives completed sessions to Postgres.
type InterviewSessionRepository interface {
	Archive(ctx context.Context, session *entity.SessionState) error
	FindById(ctx context.Context, id string) (*entity.SessionState, error)
}

// SessionStore holds live sessions. Get returns entity.ErrSessionNotFound for
// unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*entity.SessionState, error)
	Save(ctx context.Context, session *entity.SessionState) error
	Delete(ctx context.Context, id string) error
}

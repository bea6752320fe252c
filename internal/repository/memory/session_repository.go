package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process memory. It is the fallback
// store when Redis is unreachable; sessions do not survive a restart.
type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.SessionStore = &SessionRepository{}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	// Purge expired items every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

// Save stores an encoded copy so callers never share the live struct.
func (r *SessionRepository) Save(ctx context.Context, session *entity.SessionState) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	r.cache.Set(session.Id, data, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*entity.SessionState, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, entity.ErrSessionNotFound
	}
	var session entity.SessionState
	if err := json.Unmarshal(x.([]byte), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

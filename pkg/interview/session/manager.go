package session

import (
	"context"
	"fmt"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/pkg/interview/queue"
	"ai-interview-be/pkg/metrics"

	"github.com/google/uuid"
)

// Archiver persists completed sessions. Optional.
type Archiver interface {
	Archive(ctx context.Context, session *entity.SessionState) error
}

// CreateParams describes a new interview.
type CreateParams struct {
	ModuleId     string
	Domain       entity.Domain
	Difficulty   entity.Difficulty
	TypeRotation []entity.QuestionType
	Core         []entity.Question
	Personalized []entity.Question
}

// NextResult is either the next question or the end of the interview.
type NextResult struct {
	Question  *entity.Question
	Completed bool
	Remaining int
}

// Manager owns session state. Every mutation of a session runs under that
// session's lock, so concurrent submissions for one interview are applied one
// after another.
type Manager struct {
	store    contract.SessionStore
	archiver Archiver
	locks    *keyedLock
	logger   logger.ILogger
	metrics  *metrics.Collector
	now      func() time.Time
	hooks    []CompletionHook
}

// CompletionHook runs after a completed session has been saved and archived,
// still under the session lock. Hooks must not call back into the Manager for
// the same session.
type CompletionHook func(ctx context.Context, state entity.SessionState)

func NewManager(store contract.SessionStore, archiver Archiver, log logger.ILogger, m *metrics.Collector) *Manager {
	return &Manager{
		store:    store,
		archiver: archiver,
		locks:    newKeyedLock(),
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

// Create seeds the queue and stores a new session.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*entity.SessionState, error) {
	if !params.Domain.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidDomain, params.Domain)
	}
	if params.Difficulty == "" {
		params.Difficulty = entity.DifficultyMedium
	}
	if !params.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidDifficulty, params.Difficulty)
	}
	for _, t := range params.TypeRotation {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", entity.ErrInvalidQuestionType, t)
		}
	}

	seeded := queue.Seed(params.Core, params.Personalized)

	questions := make(map[string]entity.Question, len(seeded))
	for _, q := range seeded {
		questions[q.Id] = q
	}

	state := &entity.SessionState{
		Id:           uuid.NewString(),
		ModuleId:     params.ModuleId,
		Domain:       params.Domain,
		Difficulty:   params.Difficulty,
		TypeRotation: params.TypeRotation,
		Queue:        queue.Ids(seeded),
		Questions:    questions,
		Asked:        map[string]bool{},
		AskedOrder:   []string{},
		Personalized: countPersonalized(seeded, params.Personalized),
		Status:       entity.SessionStatusCreated,
		CreatedAt:    m.now(),
	}

	if err := m.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.metrics.SessionStarted()
	m.logger.Info("SESSION", "Session created", map[string]interface{}{
		"session_id":   state.Id,
		"module_id":    state.ModuleId,
		"queue_length": len(state.Queue),
		"personalized": state.Personalized,
	})
	return state, nil
}

// OnCompleted registers a hook. It is not safe to call concurrently with
// session updates; register hooks during wiring.
func (m *Manager) OnCompleted(hook CompletionHook) {
	m.hooks = append(m.hooks, hook)
}

func (m *Manager) Get(ctx context.Context, id string) (*entity.SessionState, error) {
	return m.store.Get(ctx, id)
}

// Next serves the next queued question that has not been asked yet. When the
// queue runs out the session is completed and archived.
func (m *Manager) Next(ctx context.Context, id string) (*NextResult, error) {
	var result *NextResult
	err := m.Update(ctx, id, func(state *entity.SessionState) error {
		if state.IsCompleted() {
			result = &NextResult{Completed: true}
			return nil
		}

		for state.CurrentIndex < len(state.Queue) {
			qid := state.Queue[state.CurrentIndex]
			state.CurrentIndex++
			if state.HasAsked(qid) {
				continue
			}
			if err := state.MarkAsked(qid, m.now()); err != nil {
				return err
			}
			q := state.Questions[qid]
			result = &NextResult{Question: &q, Remaining: state.Remaining()}
			return nil
		}

		state.Complete(m.now())
		result = &NextResult{Completed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update loads the session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails. A session that becomes completed inside fn
// is archived.
func (m *Manager) Update(ctx context.Context, id string, fn func(state *entity.SessionState) error) error {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	state, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	wasCompleted := state.IsCompleted()

	if err := fn(state); err != nil {
		return err
	}

	if err := m.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}

	if !wasCompleted && state.IsCompleted() {
		m.onCompleted(ctx, state)
	}
	return nil
}

func (m *Manager) onCompleted(ctx context.Context, state *entity.SessionState) {
	m.metrics.SessionCompleted()
	m.logger.Info("SESSION", "Session completed", map[string]interface{}{
		"session_id": state.Id,
		"asked":      len(state.AskedOrder),
		"follow_ups": state.FollowUps,
	})

	if m.archiver != nil {
		if err := m.archiver.Archive(ctx, state); err != nil {
			// the live copy stays in the store until its TTL, so this is not fatal
			m.logger.Error("SESSION", "Failed to archive session", map[string]interface{}{
				"session_id": state.Id,
				"error":      err,
			})
		}
	}

	for _, hook := range m.hooks {
		hook(ctx, *state)
	}
}

func countPersonalized(seeded, personalized []entity.Question) int {
	ids := make(map[string]bool, len(personalized))
	for _, q := range personalized {
		ids[q.Id] = true
	}
	n := 0
	for _, q := range seeded {
		if ids[q.Id] {
			n++
		}
	}
	return n
}

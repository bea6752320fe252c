package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
	err      error
}

func (f *fakeArchiver) Archive(ctx context.Context, s *entity.SessionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, s.Id)
	return f.err
}

func question(id string, d entity.Difficulty) entity.Question {
	return entity.Question{Id: id, Text: "Question " + id + "?", Domain: entity.DomainDSA, Difficulty: d, Type: entity.QuestionTypeTechnical}
}

func newTestManager(archiver Archiver) *Manager {
	return NewManager(memory.NewSessionRepository(time.Hour), archiver, logger.NewNopLogger(), nil)
}

func TestCreateSeedsQueue(t *testing.T) {
	m := newTestManager(nil)

	s, err := m.Create(context.Background(), CreateParams{
		ModuleId: "mod-1",
		Domain:   entity.DomainDSA,
		Core: []entity.Question{
			question("c1", entity.DifficultyEasy), question("c2", entity.DifficultyEasy),
			question("c3", entity.DifficultyMedium), question("c4", entity.DifficultyMedium),
			question("c5", entity.DifficultyHard), question("c6", entity.DifficultyHard),
		},
		Personalized: []entity.Question{question("p1", entity.DifficultyHard), question("p2", entity.DifficultyHard)},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "p1", "c2", "p2", "c3", "c4", "c5", "c6"}, s.Queue)
	assert.Equal(t, 2, s.Personalized)
	assert.Equal(t, entity.DifficultyMedium, s.Difficulty)
	assert.Equal(t, entity.SessionStatusCreated, s.Status)
	assert.Contains(t, s.Questions, "p2")
}

func TestCreateValidatesEnums(t *testing.T) {
	m := newTestManager(nil)

	_, err := m.Create(context.Background(), CreateParams{Domain: "cooking"})
	assert.ErrorIs(t, err, entity.ErrInvalidDomain)

	_, err = m.Create(context.Background(), CreateParams{Domain: entity.DomainDSA, TypeRotation: []entity.QuestionType{"trivia"}})
	assert.ErrorIs(t, err, entity.ErrInvalidQuestionType)
}

func TestNextServesQueueThenCompletes(t *testing.T) {
	archiver := &fakeArchiver{}
	m := newTestManager(archiver)
	ctx := context.Background()

	s, err := m.Create(ctx, CreateParams{
		Domain: entity.DomainDSA,
		Core:   []entity.Question{question("a", entity.DifficultyEasy), question("b", entity.DifficultyHard)},
	})
	require.NoError(t, err)

	first, err := m.Next(ctx, s.Id)
	require.NoError(t, err)
	require.NotNil(t, first.Question)
	assert.Equal(t, "a", first.Question.Id)
	assert.Equal(t, 1, first.Remaining)

	second, err := m.Next(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, "b", second.Question.Id)

	done, err := m.Next(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Nil(t, done.Question)

	again, err := m.Next(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, again.Completed)

	stored, err := m.Get(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, stored.Status)
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, []string{s.Id}, archiver.archived)
}

func TestNextSkipsQuestionsAlreadyAskedAsFollowUps(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	s, err := m.Create(ctx, CreateParams{
		Domain: entity.DomainDSA,
		Core:   []entity.Question{question("a", entity.DifficultyEasy), question("b", entity.DifficultyEasy)},
	})
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, s.Id, func(state *entity.SessionState) error {
		return state.MarkAsked("a", time.Now())
	}))

	next, err := m.Next(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, "b", next.Question.Id)
}

func TestArchiveFailureIsNotFatal(t *testing.T) {
	m := newTestManager(&fakeArchiver{err: errors.New("db down")})
	ctx := context.Background()

	s, err := m.Create(ctx, CreateParams{Domain: entity.DomainDSA})
	require.NoError(t, err)

	res, err := m.Next(ctx, s.Id)
	require.NoError(t, err)
	assert.True(t, res.Completed)
}

func TestCompletionHooksRunOnce(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	var completed []string
	m.OnCompleted(func(_ context.Context, state entity.SessionState) {
		completed = append(completed, state.Id)
		assert.True(t, state.IsCompleted())
	})

	s, err := m.Create(ctx, CreateParams{Domain: entity.DomainDSA})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = m.Next(ctx, s.Id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{s.Id}, completed)
}

func TestUpdateFailureDoesNotSave(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()
	s, err := m.Create(ctx, CreateParams{Domain: entity.DomainDSA})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.Update(ctx, s.Id, func(state *entity.SessionState) error {
		state.FollowUps = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := m.Get(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FollowUps)
}

func TestUpdateUnknownSession(t *testing.T) {
	m := newTestManager(nil)
	err := m.Update(context.Background(), "missing", func(*entity.SessionState) error { return nil })
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()
	s, err := m.Create(ctx, CreateParams{Domain: entity.DomainDSA})
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Update(ctx, s.Id, func(state *entity.SessionState) error {
				state.FollowUps++
				return nil
			}))
		}()
	}
	wg.Wait()

	stored, err := m.Get(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, writers, stored.FollowUps)
	assert.Equal(t, 0, m.locks.size())
}

func TestConcurrentNextNeverRepeats(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	var core []entity.Question
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		core = append(core, question(id, entity.DifficultyMedium))
	}
	s, err := m.Create(ctx, CreateParams{Domain: entity.DomainDSA, Core: core})
	require.NoError(t, err)

	var mu sync.Mutex
	served := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Next(ctx, s.Id)
			if !assert.NoError(t, err) || res.Question == nil {
				return
			}
			mu.Lock()
			served[res.Question.Id]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, served, 6)
	for id, n := range served {
		assert.Equal(t, 1, n, id)
	}
}

func TestKeyedLockHonoursContext(t *testing.T) {
	k := newKeyedLock()
	unlock, err := k.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, k.size())
}

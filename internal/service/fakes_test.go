package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/specification"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/pkg/events"
)

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions map[string]*entity.Question
	synced    map[string]time.Time
	deleted   []string
	findErr   error
	lastSpecs []specification.Specification
}

func newFakeQuestionRepo(questions ...entity.Question) *fakeQuestionRepo {
	r := &fakeQuestionRepo{questions: map[string]*entity.Question{}, synced: map[string]time.Time{}}
	for i := range questions {
		q := questions[i]
		r.questions[q.Id] = &q
	}
	return r
}

func (r *fakeQuestionRepo) match(q *entity.Question, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if q.Id != s.ID {
				return false
			}
		case specification.ByModuleID:
			if q.ModuleId != s.ModuleID {
				return false
			}
		case specification.ByDomain:
			if q.Domain != s.Domain {
				return false
			}
		case specification.NeedsSync:
			if q.LastSyncedAt != nil {
				return false
			}
		}
	}
	return true
}

func (r *fakeQuestionRepo) Upsert(ctx context.Context, q *entity.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	r.questions[q.Id] = &cp
	return nil
}

func (r *fakeQuestionRepo) MarkSynced(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced[id] = at
	return nil
}

func (r *fakeQuestionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.questions, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeQuestionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeQuestionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSpecs = specs
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*entity.Question
	for _, q := range r.questions {
		if r.match(q, specs) {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r *fakeQuestionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeEmbeddingRepo struct {
	deleted []string
}

func (r *fakeEmbeddingRepo) Upsert(ctx context.Context, q *entity.Question, v []float32) error {
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByQuestionId(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, v []float32, f contract.SimilarityFilter, limit int) ([]*contract.ScoredQuestion, error) {
	return nil, nil
}

type fakeArchive struct {
	sessions map[string]entity.SessionState
}

func (a *fakeArchive) Archive(ctx context.Context, state *entity.SessionState) error {
	a.sessions[state.Id] = *state
	return nil
}

func (a *fakeArchive) FindById(ctx context.Context, id string) (*entity.SessionState, error) {
	state, ok := a.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return &state, nil
}

type fakeUnitOfWork struct {
	questions  *fakeQuestionRepo
	embeddings *fakeEmbeddingRepo
	archive    *fakeArchive
	committed  int
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { u.committed++; return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) QuestionRepository() contract.QuestionRepository { return u.questions }
func (u *fakeUnitOfWork) QuestionEmbeddingRepository() contract.QuestionEmbeddingRepository {
	return u.embeddings
}
func (u *fakeUnitOfWork) InterviewSessionRepository() contract.InterviewSessionRepository {
	return u.archive
}

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func newFakeFactory(questions ...entity.Question) *fakeFactory {
	return &fakeFactory{uow: &fakeUnitOfWork{
		questions:  newFakeQuestionRepo(questions...),
		embeddings: &fakeEmbeddingRepo{},
		archive:    &fakeArchive{sessions: map[string]entity.SessionState{}},
	}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type recordingPublisher struct {
	events chan events.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan events.Event, 32)}
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.events <- e
	return nil
}

// next waits for the next published event of the given type.
func (p *recordingPublisher) next(eventType string, timeout time.Duration) (events.Event, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case e := <-p.events:
			if e.EventType() == eventType {
				return e, true
			}
		case <-deadline:
			return nil, false
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/specification"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/pkg/events"
	"ai-interview-be/pkg/followup"
	"ai-interview-be/pkg/interview/personalization"
	"ai-interview-be/pkg/interview/session"
)

const eventPublishTimeout = 2 * time.Second

type IInterviewService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetNextQuestion(ctx context.Context, sessionId string) (*dto.NextQuestionResponse, error)
	GenerateFollowUp(ctx context.Context, req *dto.GenerateFollowUpRequest) (*dto.GenerateFollowUpResponse, error)
	GetSession(ctx context.Context, sessionId string) (*dto.SessionSnapshotResponse, error)
}

// SessionManager is satisfied by *session.Manager.
type SessionManager interface {
	Create(ctx context.Context, params session.CreateParams) (*entity.SessionState, error)
	Get(ctx context.Context, id string) (*entity.SessionState, error)
	Next(ctx context.Context, id string) (*session.NextResult, error)
	Update(ctx context.Context, id string, fn func(state *entity.SessionState) error) error
	OnCompleted(hook session.CompletionHook)
}

// FollowUpGenerator is satisfied by *followup.Engine.
type FollowUpGenerator interface {
	Generate(ctx context.Context, in followup.Input) (*entity.FollowUp, error)
}

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type interviewService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessions       SessionManager
	engine         FollowUpGenerator
	personalizer   personalization.Provider
	eventPublisher EventPublisher
	logger         logger.ILogger
}

// NewInterviewService wires the session lifecycle to the follow-up engine.
// personalizer and eventPublisher may be nil.
func NewInterviewService(
	uowFactory unitofwork.RepositoryFactory,
	sessions SessionManager,
	engine FollowUpGenerator,
	personalizer personalization.Provider,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IInterviewService {
	s := &interviewService{
		uowFactory:     uowFactory,
		sessions:       sessions,
		engine:         engine,
		personalizer:   personalizer,
		eventPublisher: eventPublisher,
		logger:         log,
	}
	sessions.OnCompleted(func(_ context.Context, state entity.SessionState) {
		s.publish(events.NewSessionCompleted(&state))
	})
	return s
}

func (s *interviewService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	found, err := uow.QuestionRepository().FindAll(ctx,
		specification.ByModuleID{ModuleID: req.ModuleId},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, fmt.Errorf("load module %s: %w", req.ModuleId, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrModuleNotFound, req.ModuleId)
	}
	core := make([]entity.Question, 0, len(found))
	for _, q := range found {
		core = append(core, *q)
	}

	domain := majorityDomain(core)
	if req.Domain != "" {
		if domain, err = entity.ParseDomain(req.Domain); err != nil {
			return nil, err
		}
	}

	var difficulty entity.Difficulty
	if req.Difficulty != "" {
		if difficulty, err = entity.ParseDifficulty(req.Difficulty); err != nil {
			return nil, err
		}
	}

	rotation := make([]entity.QuestionType, 0, len(req.TypeRotation))
	for _, raw := range req.TypeRotation {
		t, err := entity.ParseQuestionType(raw)
		if err != nil {
			return nil, err
		}
		rotation = append(rotation, t)
	}

	state, err := s.sessions.Create(ctx, session.CreateParams{
		ModuleId:     req.ModuleId,
		Domain:       domain,
		Difficulty:   difficulty,
		TypeRotation: rotation,
		Core:         core,
		Personalized: s.personalize(ctx, req, domain),
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewSessionCreated(state))

	return &dto.CreateSessionResponse{
		SessionId:    state.Id,
		Domain:       string(state.Domain),
		Difficulty:   string(state.Difficulty),
		QueueLength:  len(state.Queue),
		Personalized: state.Personalized,
	}, nil
}

// personalize never fails session creation: any error means core questions
// only.
func (s *interviewService) personalize(ctx context.Context, req *dto.CreateSessionRequest, domain entity.Domain) []entity.Question {
	if s.personalizer == nil || req.PersonalizationContext == nil {
		return nil
	}

	pc := req.PersonalizationContext
	questions, err := s.personalizer.Personalize(ctx, personalization.Request{
		ModuleId: req.ModuleId,
		Domain:   domain,
		Profile: personalization.Profile{
			TargetRole:        pc.TargetRole,
			Skills:            pc.Skills,
			ExperienceSummary: pc.ExperienceSummary,
			YearsOfExperience: pc.YearsOfExperience,
		},
	})
	if err != nil {
		s.logger.Warn("INTERVIEW", "Personalization failed, using core questions only", map[string]interface{}{
			"module_id": req.ModuleId,
			"error":     err.Error(),
		})
		return nil
	}
	return questions
}

func (s *interviewService) GetNextQuestion(ctx context.Context, sessionId string) (*dto.NextQuestionResponse, error) {
	res, err := s.sessions.Next(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if res.Completed {
		return &dto.NextQuestionResponse{SessionComplete: true}, nil
	}
	return &dto.NextQuestionResponse{
		Question:  toQuestionResponse(res.Question),
		Remaining: res.Remaining,
	}, nil
}

// GenerateFollowUp runs the engine under the session lock, so the asked-set
// the engine filters against is the one the result is recorded into.
func (s *interviewService) GenerateFollowUp(ctx context.Context, req *dto.GenerateFollowUpRequest) (*dto.GenerateFollowUpResponse, error) {
	var followUp *entity.FollowUp

	err := s.sessions.Update(ctx, req.SessionId, func(state *entity.SessionState) error {
		if state.IsCompleted() {
			return fmt.Errorf("%w: %s", entity.ErrSessionCompleted, state.Id)
		}

		domain, difficulty := state.Domain, state.Difficulty
		var err error
		if req.Domain != "" {
			if domain, err = entity.ParseDomain(req.Domain); err != nil {
				return err
			}
		}
		if req.Difficulty != "" {
			if difficulty, err = entity.ParseDifficulty(req.Difficulty); err != nil {
				return err
			}
		}
		desiredType, _ := state.DesiredType()

		fu, err := s.engine.Generate(ctx, followup.Input{
			SessionId:     state.Id,
			AnswerText:    req.AnswerText,
			Domain:        domain,
			Difficulty:    difficulty,
			DesiredType:   desiredType,
			Asked:         state.AskedIds(),
			MaxCandidates: req.MaxCandidates,
		})
		if err != nil {
			return err
		}

		if err := state.MarkAsked(fu.QuestionId, time.Now()); err != nil {
			return err
		}
		state.FollowUps++
		if state.Questions == nil {
			state.Questions = make(map[string]entity.Question)
		}
		state.Questions[fu.QuestionId] = entity.Question{
			Id:         fu.QuestionId,
			ModuleId:   state.ModuleId,
			Text:       fu.Question,
			Domain:     domain,
			Difficulty: fu.Difficulty,
			Type:       fu.Type,
		}
		followUp = fu
		return nil
	})
	if errors.Is(err, entity.ErrNoMoreQuestions) {
		return &dto.GenerateFollowUpResponse{SourceIds: []string{}, NoMoreQuestions: true}, nil
	}
	if err != nil {
		if errors.Is(err, entity.ErrDuplicateQuestionConflict) {
			s.logger.Error("INTERVIEW", "Follow-up would repeat an asked question", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
		}
		return nil, err
	}

	s.publish(events.NewFollowUpGenerated(req.SessionId, followUp, time.Now()))

	sourceIds := followUp.SourceIds
	if sourceIds == nil {
		sourceIds = []string{}
	}
	return &dto.GenerateFollowUpResponse{
		QuestionId:       followUp.QuestionId,
		Question:         followUp.Question,
		Type:             string(followUp.Type),
		Difficulty:       string(followUp.Difficulty),
		SourceIds:        sourceIds,
		GenerationMethod: string(followUp.GenerationMethod),
		Source:           string(followUp.Source),
		ConfidenceScore:  followUp.ConfidenceScore,
		CacheHit:         followUp.CacheHit,
	}, nil
}

// GetSession reads the live store first; completed sessions that have expired
// from it are served from the archive.
func (s *interviewService) GetSession(ctx context.Context, sessionId string) (*dto.SessionSnapshotResponse, error) {
	state, err := s.sessions.Get(ctx, sessionId)
	if errors.Is(err, entity.ErrSessionNotFound) {
		state, err = s.uowFactory.NewUnitOfWork(ctx).InterviewSessionRepository().FindById(ctx, sessionId)
	}
	if err != nil {
		return nil, err
	}
	return &dto.SessionSnapshotResponse{
		SessionId:    state.Id,
		ModuleId:     state.ModuleId,
		Domain:       string(state.Domain),
		Difficulty:   string(state.Difficulty),
		Status:       string(state.Status),
		QueueLength:  len(state.Queue),
		AskedCount:   len(state.AskedOrder),
		Remaining:    state.Remaining(),
		FollowUps:    state.FollowUps,
		Personalized: state.Personalized,
		CreatedAt:    state.CreatedAt,
		StartedAt:    state.StartedAt,
		CompletedAt:  state.CompletedAt,
	}, nil
}

// publish is fire-and-forget; the bus is optional.
func (s *interviewService) publish(event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("INTERVIEW", "Failed to publish event", map[string]interface{}{
				"event": event.EventType(),
				"error": err.Error(),
			})
		}
	}()
}

// majorityDomain picks the most common domain of the module, ties broken by
// name so the choice is stable.
func majorityDomain(questions []entity.Question) entity.Domain {
	counts := make(map[entity.Domain]int)
	for _, q := range questions {
		counts[q.Domain]++
	}
	domains := make([]entity.Domain, 0, len(counts))
	for d := range counts {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if counts[domains[i]] != counts[domains[j]] {
			return counts[domains[i]] > counts[domains[j]]
		}
		return domains[i] < domains[j]
	})
	if len(domains) == 0 {
		return ""
	}
	return domains[0]
}

func toQuestionResponse(q *entity.Question) *dto.QuestionResponse {
	if q == nil {
		return nil
	}
	return &dto.QuestionResponse{
		Id:         q.Id,
		Text:       q.Text,
		Domain:     string(q.Domain),
		Difficulty: string(q.Difficulty),
		Type:       string(q.Type),
	}
}

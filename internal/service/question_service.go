package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/specification"
	"ai-interview-be/internal/repository/unitofwork"
)

const defaultPageSize = 20

type IQuestionService interface {
	Sync(ctx context.Context, req *dto.SyncQuestionRequest) (*dto.SyncQuestionResponse, error)
	List(ctx context.Context, req *dto.ListQuestionsRequest) (*dto.ListQuestionsResponse, error)
	Delete(ctx context.Context, id string) error
}

type questionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewQuestionService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService, log logger.ILogger) IQuestionService {
	return &questionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           log,
	}
}

// Sync upserts a corpus question and queues it for re-embedding. Metadata
// corrections go through the same path.
func (s *questionService) Sync(ctx context.Context, req *dto.SyncQuestionRequest) (*dto.SyncQuestionResponse, error) {
	question, err := questionFromRequest(req)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.QuestionRepository().Upsert(ctx, question); err != nil {
		return nil, fmt.Errorf("upsert question %s: %w", question.Id, err)
	}

	queuedAt := time.Now()
	if err := s.publisherService.PublishQuestionSync(ctx, question.Id); err != nil {
		// The row is stored; a later resync will pick it up.
		s.logger.Warn("QUESTION", "Failed to queue question sync", map[string]interface{}{
			"question_id": question.Id,
			"error":       err.Error(),
		})
		return &dto.SyncQuestionResponse{Id: question.Id}, nil
	}

	return &dto.SyncQuestionResponse{Id: question.Id, Queued: true, QueuedAt: queuedAt}, nil
}

func (s *questionService) List(ctx context.Context, req *dto.ListQuestionsRequest) (*dto.ListQuestionsResponse, error) {
	var filters []specification.Specification
	if req.ModuleId != "" {
		filters = append(filters, specification.ByModuleID{ModuleID: req.ModuleId})
	}
	if req.Domain != "" {
		domain, err := entity.ParseDomain(req.Domain)
		if err != nil {
			return nil, err
		}
		filters = append(filters, specification.ByDomain{Domain: domain})
	}
	if req.Difficulty != "" {
		difficulty, err := entity.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, err
		}
		filters = append(filters, specification.ByDifficulty{Difficulty: difficulty})
	}
	if req.Type != "" {
		qType, err := entity.ParseQuestionType(req.Type)
		if err != nil {
			return nil, err
		}
		filters = append(filters, specification.ByQuestionType{Type: qType})
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		filters = append(filters, specification.QuestionTextSearch{Query: q})
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page := max(req.Page, 1)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.QuestionRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}
	pending, err := repo.Count(ctx, append([]specification.Specification{specification.NeedsSync{}}, filters...)...)
	if err != nil {
		return nil, err
	}

	query := append(filters,
		specification.OrderBy{Field: "id"},
		specification.Pagination{Limit: pageSize, Offset: (page - 1) * pageSize},
	)
	questions, err := repo.FindAll(ctx, query...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.QuestionDetailResponse, 0, len(questions))
	for _, q := range questions {
		items = append(items, dto.QuestionDetailResponse{
			Id:                q.Id,
			ModuleId:          q.ModuleId,
			Text:              q.Text,
			Domain:            string(q.Domain),
			Difficulty:        string(q.Difficulty),
			Type:              string(q.Type),
			FollowUpTemplates: q.FollowUpTemplates,
			LastSyncedAt:      q.LastSyncedAt,
		})
	}

	return &dto.ListQuestionsResponse{
		Items:       items,
		Total:       total,
		PendingSync: pending,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}

// Delete removes the question and its embedding in one transaction.
func (s *questionService) Delete(ctx context.Context, id string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	question, err := uow.QuestionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if question == nil {
		return fmt.Errorf("%w: %s", entity.ErrQuestionNotFound, id)
	}

	if err := uow.QuestionEmbeddingRepository().DeleteByQuestionId(ctx, id); err != nil {
		return err
	}
	if err := uow.QuestionRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("QUESTION", "Question deleted", map[string]interface{}{"question_id": id})
	return nil
}

func questionFromRequest(req *dto.SyncQuestionRequest) (*entity.Question, error) {
	domain, err := entity.ParseDomain(req.Domain)
	if err != nil {
		return nil, err
	}
	difficulty, err := entity.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}
	qType, err := entity.ParseQuestionType(req.Type)
	if err != nil {
		return nil, err
	}

	question := &entity.Question{
		Id:                strings.TrimSpace(req.Id),
		ModuleId:          strings.TrimSpace(req.ModuleId),
		Text:              strings.Join(strings.Fields(req.Text), " "),
		Domain:            domain,
		Difficulty:        difficulty,
		Type:              qType,
		FollowUpTemplates: req.FollowUpTemplates,
	}
	if err := question.Validate(); err != nil {
		return nil, err
	}
	return question, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/specification"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/pkg/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	Reindex(ctx context.Context, questionId string) error
}

// DocumentEmbedder is satisfied by *embedding.Client.
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// QuestionIndexer is satisfied by *retrieval.Index.
type QuestionIndexer interface {
	Upsert(ctx context.Context, question *entity.Question, vector []float32) error
}

type consumerService struct {
	subscriber  message.Subscriber
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	embedder    DocumentEmbedder
	indexer     QuestionIndexer
	logger      logger.ILogger
	metrics     *metrics.Collector
	maxAttempts int
	backoff     time.Duration
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embedder DocumentEmbedder,
	indexer QuestionIndexer,
	log logger.ILogger,
	m *metrics.Collector,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		uowFactory:  uowFactory,
		embedder:    embedder,
		indexer:     indexer,
		logger:      log,
		metrics:     m,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. A question that still fails after the last
// attempt keeps a stale last_synced_at and is picked up by the next resync.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.QuestionSyncMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.QuestionId == "" {
		cs.logger.Error("SYNC", "Dropping malformed sync message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      fmt.Sprint(err),
		})
		return
	}

	var err error
	for attempt := 1; attempt <= cs.maxAttempts; attempt++ {
		err = cs.Reindex(ctx, payload.QuestionId)
		if err == nil || ctx.Err() != nil {
			return
		}
		cs.logger.Warn("SYNC", "Reindex attempt failed", map[string]interface{}{
			"question_id": payload.QuestionId,
			"attempt":     attempt,
			"error":       err.Error(),
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(cs.backoff * time.Duration(attempt)):
		}
	}

	cs.logger.Error("SYNC", "Giving up on question sync", map[string]interface{}{
		"question_id": payload.QuestionId,
		"error":       err.Error(),
	})
}

// Reindex embeds the question text and writes it to the vector index, then
// records the sync time. A deleted question is not an error.
func (cs *consumerService) Reindex(ctx context.Context, questionId string) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	question, err := uow.QuestionRepository().FindOne(ctx, specification.ByID{ID: questionId})
	if err != nil {
		cs.metrics.ObserveSync(false)
		return fmt.Errorf("load question %s: %w", questionId, err)
	}
	if question == nil {
		cs.logger.Info("SYNC", "Question removed before sync", map[string]interface{}{
			"question_id": questionId,
		})
		return nil
	}

	vector, err := cs.embedder.EmbedDocument(ctx, question.Text)
	if err != nil {
		cs.metrics.ObserveSync(false)
		return fmt.Errorf("embed question %s: %w", questionId, err)
	}

	if err := cs.indexer.Upsert(ctx, question, vector); err != nil {
		cs.metrics.ObserveSync(false)
		return fmt.Errorf("index question %s: %w", questionId, err)
	}

	if err := uow.QuestionRepository().MarkSynced(ctx, questionId, time.Now()); err != nil {
		cs.metrics.ObserveSync(false)
		return fmt.Errorf("mark question %s synced: %w", questionId, err)
	}

	cs.metrics.ObserveSync(true)
	cs.logger.Info("SYNC", "Question indexed", map[string]interface{}{
		"question_id": questionId,
		"dimensions":  len(vector),
	})
	return nil
}

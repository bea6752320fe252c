package service

import (
	"context"

	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/events"
	"ai-interview-be/pkg/nats"
)

const (
	auditSubject = "events.interview.>"
	auditDurable = "interview-audit"
)

type IEventAuditService interface {
	Start(ctx context.Context) error
}

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler nats.EventHandler) error
}

// eventAuditService writes every interview lifecycle event to the audit log.
type eventAuditService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewEventAuditService(subscriber EventSubscriber, auditLog logger.ILogger) IEventAuditService {
	return &eventAuditService{subscriber: subscriber, logger: auditLog}
}

func (s *eventAuditService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, auditSubject, auditDurable, s.handle)
}

func (s *eventAuditService) handle(_ context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()

	s.logger.Info("AUDIT", event.EventType(), details)
	return nil
}

package mapper

import (
	"encoding/json"
	"fmt"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

// ToArchiveModel flattens a session for the interview_sessions table. Question
// snapshots are not archived; the queue ids point back into the corpus.
func (m *SessionMapper) ToArchiveModel(s *entity.SessionState) (*model.InterviewSession, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}

	id, err := uuid.Parse(s.Id)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}

	queue, err := json.Marshal(s.Queue)
	if err != nil {
		return nil, fmt.Errorf("marshal queue: %w", err)
	}
	asked, err := json.Marshal(s.AskedOrder)
	if err != nil {
		return nil, fmt.Errorf("marshal asked order: %w", err)
	}

	return &model.InterviewSession{
		Id:           id,
		ModuleId:     s.ModuleId,
		Domain:       string(s.Domain),
		Difficulty:   string(s.Difficulty),
		Status:       string(s.Status),
		Queue:        datatypes.JSON(queue),
		AskedOrder:   datatypes.JSON(asked),
		FollowUps:    s.FollowUps,
		Personalized: s.Personalized,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
		CreatedAt:    s.CreatedAt,
	}, nil
}

func (m *SessionMapper) FromArchiveModel(a *model.InterviewSession) (*entity.SessionState, error) {
	if a == nil {
		return nil, nil
	}

	var queue, asked []string
	if len(a.Queue) > 0 {
		if err := json.Unmarshal(a.Queue, &queue); err != nil {
			return nil, fmt.Errorf("unmarshal queue: %w", err)
		}
	}
	if len(a.AskedOrder) > 0 {
		if err := json.Unmarshal(a.AskedOrder, &asked); err != nil {
			return nil, fmt.Errorf("unmarshal asked order: %w", err)
		}
	}

	askedSet := make(map[string]bool, len(asked))
	for _, id := range asked {
		askedSet[id] = true
	}

	return &entity.SessionState{
		Id:           a.Id.String(),
		ModuleId:     a.ModuleId,
		Domain:       entity.Domain(a.Domain),
		Difficulty:   entity.Difficulty(a.Difficulty),
		Queue:        queue,
		Questions:    map[string]entity.Question{},
		CurrentIndex: len(queue),
		Asked:        askedSet,
		AskedOrder:   asked,
		FollowUps:    a.FollowUps,
		Personalized: a.Personalized,
		Status:       entity.SessionStatus(a.Status),
		CreatedAt:    a.CreatedAt,
		StartedAt:    a.StartedAt,
		CompletedAt:  a.CompletedAt,
	}, nil
}

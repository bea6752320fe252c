package entity

import (
	"fmt"
	"time"
)

type SessionStatus string

const (
	SessionStatusCreated    SessionStatus = "created"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// SessionState is owned by the session manager for the lifetime of an
// interview. Every mutation must happen under the session's lock.
type SessionState struct {
	Id           string              `json:"id"`
	ModuleId     string              `json:"module_id"`
	Domain       Domain              `json:"domain"`
	Difficulty   Difficulty          `json:"difficulty"`
	TypeRotation []QuestionType      `json:"type_rotation,omitempty"`
	Queue        []string            `json:"queue"`
	Questions    map[string]Question `json:"questions"`
	CurrentIndex int                 `json:"current_index"`
	Asked        map[string]bool     `json:"asked"`
	AskedOrder   []string            `json:"asked_order"`
	FollowUps    int                 `json:"follow_ups"`
	Personalized int                 `json:"personalized"`
	Status       SessionStatus       `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

func (s *SessionState) HasAsked(questionId string) bool {
	return s.Asked[questionId]
}

// MarkAsked records a served question. Asking the same id twice is an
// invariant violation.
func (s *SessionState) MarkAsked(questionId string, now time.Time) error {
	if s.Asked == nil {
		s.Asked = make(map[string]bool)
	}
	if s.Asked[questionId] {
		return fmt.Errorf("%w: session %s, question %s", ErrDuplicateQuestionConflict, s.Id, questionId)
	}
	s.Asked[questionId] = true
	s.AskedOrder = append(s.AskedOrder, questionId)
	if s.StartedAt == nil {
		started := now
		s.StartedAt = &started
	}
	if s.Status == SessionStatusCreated {
		s.Status = SessionStatusInProgress
	}
	return nil
}

// DesiredType returns the next type of the rotation, if the session tracks
// one.
func (s *SessionState) DesiredType() (QuestionType, bool) {
	if len(s.TypeRotation) == 0 {
		return "", false
	}
	return s.TypeRotation[len(s.AskedOrder)%len(s.TypeRotation)], true
}

func (s *SessionState) Complete(now time.Time) {
	if s.Status == SessionStatusCompleted {
		return
	}
	completed := now
	s.CompletedAt = &completed
	s.Status = SessionStatusCompleted
}

func (s *SessionState) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

func (s *SessionState) Remaining() int {
	remaining := 0
	for _, id := range s.Queue[min(s.CurrentIndex, len(s.Queue)):] {
		if !s.Asked[id] {
			remaining++
		}
	}
	return remaining
}

// AskedIds returns a copy of the asked-set safe to hand to the engine.
func (s *SessionState) AskedIds() map[string]bool {
	out := make(map[string]bool, len(s.Asked))
	for id := range s.Asked {
		out[id] = true
	}
	return out
}

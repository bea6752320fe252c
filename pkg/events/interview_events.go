package events

import (
	"time"

	"ai-interview-be/internal/entity"
)

const (
	TypeSessionCreated    = "interview.session_created"
	TypeFollowUpGenerated = "interview.followup_generated"
	TypeSessionCompleted  = "interview.session_completed"
)

func NewSessionCreated(state *entity.SessionState) Event {
	return BaseEvent{
		Type: TypeSessionCreated,
		Data: map[string]interface{}{
			"session_id":   state.Id,
			"module_id":    state.ModuleId,
			"domain":       string(state.Domain),
			"difficulty":   string(state.Difficulty),
			"queue_length": len(state.Queue),
			"personalized": state.Personalized,
		},
		OccurredAt: state.CreatedAt,
	}
}

// NewFollowUpGenerated carries no answer text; only ids and labels leave the
// process.
func NewFollowUpGenerated(sessionId string, followUp *entity.FollowUp, at time.Time) Event {
	return BaseEvent{
		Type: TypeFollowUpGenerated,
		Data: map[string]interface{}{
			"session_id":        sessionId,
			"question_id":       followUp.QuestionId,
			"generation_method": string(followUp.GenerationMethod),
			"source":            string(followUp.Source),
			"confidence_score":  followUp.ConfidenceScore,
			"cache_hit":         followUp.CacheHit,
		},
		OccurredAt: at,
	}
}

func NewSessionCompleted(state *entity.SessionState) Event {
	at := time.Now()
	if state.CompletedAt != nil {
		at = *state.CompletedAt
	}
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id": state.Id,
			"asked":      len(state.AskedOrder),
			"follow_ups": state.FollowUps,
		},
		OccurredAt: at,
	}
}

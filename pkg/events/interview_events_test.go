package events

import (
	"testing"
	"time"

	"ai-interview-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionCreated(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := NewSessionCreated(&entity.SessionState{
		Id:         "s-1",
		ModuleId:   "m-1",
		Domain:     entity.DomainDSA,
		Difficulty: entity.DifficultyHard,
		Queue:      []string{"a", "b"},
		CreatedAt:  created,
	})

	assert.Equal(t, TypeSessionCreated, e.EventType())
	assert.Equal(t, created, e.Timestamp())
	assert.Equal(t, "dsa", e.Payload()["domain"])
	assert.Equal(t, 2, e.Payload()["queue_length"])
}

func TestNewFollowUpGeneratedOmitsText(t *testing.T) {
	e := NewFollowUpGenerated("s-1", &entity.FollowUp{
		QuestionId:       "q-9",
		Question:         "How would you shard it?",
		GenerationMethod: entity.StrategyContextualGenerate,
		Source:           entity.SourceSynthesized,
	}, time.Now())

	assert.Equal(t, "q-9", e.Payload()["question_id"])
	assert.Equal(t, "contextual_generate", e.Payload()["generation_method"])
	assert.NotContains(t, e.Payload(), "question")
}

func TestNewSessionCompletedUsesCompletionTime(t *testing.T) {
	done := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)
	e := NewSessionCompleted(&entity.SessionState{Id: "s-1", AskedOrder: []string{"a"}, CompletedAt: &done})

	assert.Equal(t, TypeSessionCompleted, e.EventType())
	assert.Equal(t, done, e.Timestamp())
	assert.Equal(t, 1, e.Payload()["asked"])
}

package nats

import (
	"testing"
	"time"

	"ai-interview-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripKeepsType(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encode(events.BaseEvent{
		Type:       events.TypeSessionCreated,
		Data:       map[string]interface{}{"session_id": "s-1"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, events.TypeSessionCreated, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "s-1", got.Payload()["session_id"])
}

func TestDecodeRejectsUntyped(t *testing.T) {
	_, err := decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.interview.session_completed", Subject(events.TypeSessionCompleted))
}

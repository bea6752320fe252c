package personalization

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply   string
	err     error
	delay   time.Duration
	history []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.history = history
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

var goProfile = Profile{TargetRole: "Backend engineer", Skills: []string{"Go", "Postgres"}}

func TestPersonalizeParsesFencedJSON(t *testing.T) {
	f := &fakeLLM{reply: "```json\n[" +
		`{"text":"How did you tune Postgres indexes?","difficulty":"medium","type":"technical"},` +
		`{"text":"What is a goroutine leak?","difficulty":"EASY","type":"conceptual"}` +
		"]\n```"}
	p := NewLLMProvider(f, time.Second, logger.NewNopLogger())

	got, err := p.Personalize(context.Background(), Request{ModuleId: "m-1", Domain: entity.DomainBackend, Profile: goProfile})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, entity.DifficultyMedium, got[0].Difficulty)
	assert.Equal(t, entity.DifficultyEasy, got[1].Difficulty)
	assert.Equal(t, entity.DomainBackend, got[0].Domain)
	assert.Equal(t, "m-1", got[0].ModuleId)
	assert.True(t, strings.HasPrefix(got[0].Id, "pers-"))
	assert.Contains(t, f.history[1].Content, "Go, Postgres")
}

func TestParseSkipsInvalidAndCapsLimit(t *testing.T) {
	raw := `[
		{"text":"no question mark","difficulty":"easy","type":"technical"},
		{"text":"Bad difficulty?","difficulty":"extreme","type":"technical"},
		{"text":"Why use channels?","difficulty":"easy","type":"unknown"},
		{"text":"Why  use channels?","difficulty":"hard","type":"technical"},
		{"text":"How do you profile Go?","difficulty":"hard","type":"technical"},
		{"text":"How do you test it?","difficulty":"hard","type":"technical"}
	]`
	got, skipped := Parse(raw, Request{ModuleId: "m", Domain: entity.DomainBackend, Limit: 2})

	require.Len(t, got, 2)
	assert.Equal(t, "Why use channels?", got[0].Text)
	assert.Equal(t, entity.QuestionTypeTechnical, got[0].Type)
	assert.Equal(t, "How do you profile Go?", got[1].Text)
	assert.Equal(t, 3, skipped)
}

func TestParseGarbage(t *testing.T) {
	got, _ := Parse("I cannot help with that", Request{})
	assert.Empty(t, got)
}

func TestPersonalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"provider error", &fakeLLM{err: errors.New("503")}},
		{"no usable output", &fakeLLM{reply: "[]"}},
		{"timeout", &fakeLLM{reply: `[{"text":"Late?","difficulty":"easy"}]`, delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewLLMProvider(tt.llm, 20*time.Millisecond, logger.NewNopLogger())
			got, err := p.Personalize(context.Background(), Request{Domain: entity.DomainDSA, Profile: goProfile})
			assert.Error(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestPersonalizeEmptyProfileSkipsCall(t *testing.T) {
	f := &fakeLLM{err: errors.New("must not be called")}
	got, err := NewLLMProvider(f, time.Second, logger.NewNopLogger()).Personalize(context.Background(), Request{})

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, f.history)
}

func TestBuildPromptCutsSummaryOnRuneBoundary(t *testing.T) {
	// a one-byte prefix puts maxProfileText inside a 3-byte rune
	summary := "a" + strings.Repeat("日", maxProfileText)
	prompt := buildPrompt(Request{Domain: entity.DomainBackend, Limit: 2, Profile: Profile{ExperienceSummary: summary}})

	assert.True(t, utf8.ValidString(prompt))
	start := strings.Index(prompt, "<experience>") + len("<experience>")
	end := strings.Index(prompt, "</experience>")
	require.Greater(t, end, start)
	kept := prompt[start:end]
	assert.Equal(t, maxProfileText-2, len(kept))
	assert.Equal(t, 1+(maxProfileText-2)/3, utf8.RuneCountInString(kept))
}

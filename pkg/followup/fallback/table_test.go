package fallback

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ai-interview-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableCoversEveryKey(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Positive(t, table.Version())

	for _, d := range entity.AllDomains {
		for _, diff := range entity.DifficultyTiers {
			assert.GreaterOrEqual(t, table.Size(d, diff), 3, "%s/%s", d, diff)
		}
	}
	assert.Len(t, table.Keys(), len(entity.AllDomains)*len(entity.DifficultyTiers))
}

func TestDefaultTableQuestionsAreQuestions(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	for _, d := range entity.AllDomains {
		for _, diff := range entity.DifficultyTiers {
			asked := map[string]bool{}
			for {
				q, err := table.Pick(d, diff, asked, "")
				if err != nil {
					break
				}
				assert.True(t, strings.HasSuffix(q.Text, "?"), q.Id)
				asked[q.Id] = true
			}
		}
	}
}

func TestPickSkipsAskedAndExhausts(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	asked := map[string]bool{}
	for i := 0; i < table.Size(entity.DomainDSA, entity.DifficultyEasy); i++ {
		q, err := table.Pick(entity.DomainDSA, entity.DifficultyEasy, asked, "")
		require.NoError(t, err)
		assert.False(t, asked[q.Id])
		asked[q.Id] = true
	}

	_, err = table.Pick(entity.DomainDSA, entity.DifficultyEasy, asked, "")
	assert.ErrorIs(t, err, entity.ErrNoMoreQuestions)
}

func TestPickPrefersDesiredType(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	q, err := table.Pick(entity.DomainDSA, entity.DifficultyEasy, nil, entity.QuestionTypeCoding)
	require.NoError(t, err)
	assert.Equal(t, entity.QuestionTypeCoding, q.Type)

	// no question of that type: still returns something
	q, err = table.Pick(entity.DomainBehavioral, entity.DifficultyEasy, nil, entity.QuestionTypeCoding)
	require.NoError(t, err)
	assert.Equal(t, entity.QuestionTypeBehavioral, q.Type)
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 9
questions:
  backend:
    hard:
      - id: custom-1
        type: design
        text: How would you shard this service?
`), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, table.Version())
	assert.Equal(t, 1, table.Size(entity.DomainBackend, entity.DifficultyHard))
	assert.Equal(t, 0, table.Size(entity.DomainDSA, entity.DifficultyEasy))
}

func TestParseRejectsBadData(t *testing.T) {
	tests := map[string]string{
		"no version":     "questions: {}",
		"bad domain":     "version: 1\nquestions:\n  cooking:\n    easy: []",
		"bad difficulty": "version: 1\nquestions:\n  dsa:\n    extreme: []",
		"bad type":       "version: 1\nquestions:\n  dsa:\n    easy:\n      - {id: a, type: trivia, text: Why is it?}",
		"duplicate id":   "version: 1\nquestions:\n  dsa:\n    easy:\n      - {id: a, type: coding, text: Why is it?}\n      - {id: a, type: coding, text: How is it?}",
		"not yaml":       "version: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

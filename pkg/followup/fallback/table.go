package fallback

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"ai-interview-be/internal/entity"

	"gopkg.in/yaml.v3"
)

//go:embed default_table.yaml
var defaultTable []byte

type tableFile struct {
	Version   int                                   `yaml:"version"`
	Questions map[string]map[string][]questionEntry `yaml:"questions"`
}

type questionEntry struct {
	Id   string `yaml:"id"`
	Type string `yaml:"type"`
	Text string `yaml:"text"`
}

type key struct {
	domain     entity.Domain
	difficulty entity.Difficulty
}

// Table is the versioned domain fallback table, keyed by (domain,
// difficulty). It is read-only after Load and safe to share.
type Table struct {
	version int
	entries map[key][]entity.Question
}

// Load reads the table from path, or the embedded default when path is
// empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse(defaultTable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback table: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fallback table: %w", err)
	}
	if file.Version <= 0 {
		return nil, fmt.Errorf("fallback table: version must be positive")
	}

	t := &Table{version: file.Version, entries: make(map[key][]entity.Question)}
	seen := make(map[string]bool)

	for rawDomain, tiers := range file.Questions {
		domain, err := entity.ParseDomain(rawDomain)
		if err != nil {
			return nil, fmt.Errorf("fallback table: %w", err)
		}
		for rawDifficulty, entries := range tiers {
			difficulty, err := entity.ParseDifficulty(rawDifficulty)
			if err != nil {
				return nil, fmt.Errorf("fallback table %s: %w", domain, err)
			}
			for _, e := range entries {
				qtype, err := entity.ParseQuestionType(e.Type)
				if err != nil {
					return nil, fmt.Errorf("fallback table %s/%s: %w", domain, difficulty, err)
				}
				q := entity.Question{
					Id:         e.Id,
					Text:       e.Text,
					Domain:     domain,
					Difficulty: difficulty,
					Type:       qtype,
				}
				if err := q.Validate(); err != nil {
					return nil, fmt.Errorf("fallback table: %w", err)
				}
				if seen[q.Id] {
					return nil, fmt.Errorf("fallback table: duplicate id %s", q.Id)
				}
				seen[q.Id] = true

				k := key{domain, difficulty}
				t.entries[k] = append(t.entries[k], q)
			}
		}
	}

	return t, nil
}

func (t *Table) Version() int {
	return t.version
}

// Size is the number of questions for (domain, difficulty).
func (t *Table) Size(domain entity.Domain, difficulty entity.Difficulty) int {
	return len(t.entries[key{domain, difficulty}])
}

// Pick returns the first question for (domain, difficulty) that is not in
// asked, preferring desiredType when set. When every question has been asked
// it returns entity.ErrNoMoreQuestions.
func (t *Table) Pick(domain entity.Domain, difficulty entity.Difficulty, asked map[string]bool, desiredType entity.QuestionType) (entity.Question, error) {
	var firstUnasked *entity.Question
	for i := range t.entries[key{domain, difficulty}] {
		q := &t.entries[key{domain, difficulty}][i]
		if asked[q.Id] {
			continue
		}
		if desiredType == "" || q.Type == desiredType {
			return *q, nil
		}
		if firstUnasked == nil {
			firstUnasked = q
		}
	}
	if firstUnasked != nil {
		return *firstUnasked, nil
	}
	return entity.Question{}, fmt.Errorf("%w: %s/%s", entity.ErrNoMoreQuestions, domain, difficulty)
}

// Keys lists the populated (domain, difficulty) pairs in a stable order.
func (t *Table) Keys() [][2]string {
	out := make([][2]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, [2]string{string(k.domain), string(k.difficulty)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

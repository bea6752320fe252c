package main

import (
	"fmt"
	"os"

	"ai-interview-be/internal/dto"

	"gopkg.in/yaml.v3"
)

type corpusFile struct {
	Modules []corpusModule `yaml:"modules"`
}

type corpusModule struct {
	Id        string           `yaml:"id"`
	Domain    string           `yaml:"domain"`
	Questions []corpusQuestion `yaml:"questions"`
}

type corpusQuestion struct {
	Id         string   `yaml:"id"`
	Text       string   `yaml:"text"`
	Domain     string   `yaml:"domain"`
	Difficulty string   `yaml:"difficulty"`
	Type       string   `yaml:"type"`
	FollowUps  []string `yaml:"follow_ups"`
}

func loadCorpus(path string) ([]dto.SyncQuestionRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return parseCorpus(data)
}

// parseCorpus flattens modules into sync requests. A question without its
// own domain inherits the module's.
func parseCorpus(data []byte) ([]dto.SyncQuestionRequest, error) {
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	seen := make(map[string]bool)
	var out []dto.SyncQuestionRequest
	for _, m := range file.Modules {
		if m.Id == "" {
			return nil, fmt.Errorf("corpus: module without id")
		}
		for _, q := range m.Questions {
			if seen[q.Id] {
				return nil, fmt.Errorf("corpus: duplicate question id %q", q.Id)
			}
			seen[q.Id] = true

			domain := q.Domain
			if domain == "" {
				domain = m.Domain
			}
			out = append(out, dto.SyncQuestionRequest{
				Id:                q.Id,
				ModuleId:          m.Id,
				Text:              q.Text,
				Domain:            domain,
				Difficulty:        q.Difficulty,
				Type:              q.Type,
				FollowUpTemplates: q.FollowUps,
			})
		}
	}
	return out, nil
}

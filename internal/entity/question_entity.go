package entity

import (
	"fmt"
	"strings"
	"time"
)

// Domain is the closed set of interview domains the corpus is organised by.
type Domain string

const (
	DomainDSA             Domain = "dsa"
	DomainSystemDesign    Domain = "system_design"
	DomainBackend         Domain = "backend"
	DomainFrontend        Domain = "frontend"
	DomainMachineLearning Domain = "machine_learning"
	DomainBehavioral      Domain = "behavioral"
)

var AllDomains = []Domain{
	DomainDSA,
	DomainSystemDesign,
	DomainBackend,
	DomainFrontend,
	DomainMachineLearning,
	DomainBehavioral,
}

// ParseDomain rejects anything outside the closed set so a typo can never
// silently miss every filter downstream.
func ParseDomain(raw string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllDomains {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
}

func (d Domain) Valid() bool {
	_, err := ParseDomain(string(d))
	return err == nil
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyTiers is the progression order used when seeding a session queue.
var DifficultyTiers = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range DifficultyTiers {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, raw)
}

func (d Difficulty) Valid() bool {
	_, err := ParseDifficulty(string(d))
	return err == nil
}

type QuestionType string

const (
	QuestionTypeConceptual QuestionType = "conceptual"
	QuestionTypeTechnical  QuestionType = "technical"
	QuestionTypeBehavioral QuestionType = "behavioral"
	QuestionTypeCoding     QuestionType = "coding"
	QuestionTypeDesign     QuestionType = "design"
)

var AllQuestionTypes = []QuestionType{
	QuestionTypeConceptual,
	QuestionTypeTechnical,
	QuestionTypeBehavioral,
	QuestionTypeCoding,
	QuestionTypeDesign,
}

func ParseQuestionType(raw string) (QuestionType, error) {
	t := QuestionType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllQuestionTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuestionType, raw)
}

func (t QuestionType) Valid() bool {
	_, err := ParseQuestionType(string(t))
	return err == nil
}

// Question is a corpus entry. Text is immutable once embedded; metadata
// corrections go through a re-sync.
type Question struct {
	Id                string
	ModuleId          string
	Text              string
	Domain            Domain
	Difficulty        Difficulty
	Type              QuestionType
	FollowUpTemplates []string
	LastSyncedAt      *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// Validate checks the enum fields; it is called at every inbound boundary.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %s: text is required", ErrInvalidQuestion, q.Id)
	}
	if !q.Domain.Valid() {
		return fmt.Errorf("question %s: %w: %q", q.Id, ErrInvalidDomain, q.Domain)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("question %s: %w: %q", q.Id, ErrInvalidDifficulty, q.Difficulty)
	}
	if !q.Type.Valid() {
		return fmt.Errorf("question %s: %w: %q", q.Id, ErrInvalidQuestionType, q.Type)
	}
	return nil
}

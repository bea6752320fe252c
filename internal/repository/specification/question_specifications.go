package specification

import (
	"ai-interview-be/internal/entity"

	"gorm.io/gorm"
)

type ByModuleID struct {
	ModuleID string
}

func (s ByModuleID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("module_id = ?", s.ModuleID)
}

type ByDomain struct {
	Domain entity.Domain
}

func (s ByDomain) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("domain = ?", string(s.Domain))
}

type ByDifficulty struct {
	Difficulty entity.Difficulty
}

func (s ByDifficulty) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("difficulty = ?", string(s.Difficulty))
}

type ByQuestionType struct {
	Type entity.QuestionType
}

func (s ByQuestionType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", string(s.Type))
}

// NeedsSync selects questions edited after their last embedding.
type NeedsSync struct{}

func (s NeedsSync) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_synced_at IS NULL OR last_synced_at < updated_at")
}

// QuestionTextSearch matches question text case-insensitively.
type QuestionTextSearch struct {
	Query string
}

func (s QuestionTextSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("text ILIKE ?", "%"+s.Query+"%")
}

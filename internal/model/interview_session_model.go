package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InterviewSession is the archived copy of a completed session. Live
// sessions only exist in the session store.
type InterviewSession struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ModuleId     string         `gorm:"type:varchar(128);index"`
	Domain       string         `gorm:"type:varchar(32)"`
	Difficulty   string         `gorm:"type:varchar(16)"`
	Status       string         `gorm:"type:varchar(16);not null"`
	Queue        datatypes.JSON `gorm:"type:jsonb"`
	AskedOrder   datatypes.JSON `gorm:"type:jsonb"`
	FollowUps    int            `gorm:"default:0"`
	Personalized int            `gorm:"default:0"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	Id                string         `gorm:"type:varchar(128);primaryKey"`
	ModuleId          string         `gorm:"type:varchar(128);index"`
	Text              string         `gorm:"type:text;not null"`
	Domain            string         `gorm:"type:varchar(32);not null;index"`
	Difficulty        string         `gorm:"type:varchar(16);not null;index"`
	Type              string         `gorm:"type:varchar(16);not null"`
	FollowUpTemplates datatypes.JSON `gorm:"type:jsonb"`
	LastSyncedAt      *time.Time
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// QuestionEmbedding is the vector index row for one corpus question. The
// filter columns are denormalized from questions so a similarity query never
// needs a join.
type QuestionEmbedding struct {
	QuestionId     string          `gorm:"type:varchar(128);primaryKey"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 and nomic-embed-text both use 768 dimensions
	Domain         string          `gorm:"type:varchar(32);not null;index"`
	Difficulty     string          `gorm:"type:varchar(16);not null;index"`
	Type           string          `gorm:"type:varchar(16);not null;index"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (QuestionEmbedding) TableName() string {
	return "question_embeddings"
}

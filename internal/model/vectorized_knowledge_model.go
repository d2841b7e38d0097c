package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// VectorizedKnowledge holds one embedded chunk of a knowledge resource.
// PostgreSQL only; the table is never created on MySQL targets.
type VectorizedKnowledge struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Source    string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_vector_source_key,priority:1"`
	Key       string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_vector_source_key,priority:2"`
	Content   string          `gorm:"type:text;not null"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text / text-embedding-004 use 768 dimensions
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (VectorizedKnowledge) TableName() string {
	return "vectorized_knowledge"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DocumentChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Source     string          `gorm:"type:text;not null;index"`
	Page       int             `gorm:"default:0"` // 0 when the source has no pages
	ChunkIndex int             `gorm:"default:0"`
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and Gemini text-embedding-004 both use 768 dimensions
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

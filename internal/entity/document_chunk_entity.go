package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded slice of an indexed document
type DocumentChunk struct {
	Id         uuid.UUID
	Source     string
	Page       int
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

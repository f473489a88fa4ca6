package dto

import "github.com/google/uuid"

type IndexDocumentRequest struct {
	Source string `json:"source" validate:"required,max=512"`
	Text   string `json:"text" validate:"required"`
}

type IndexDocumentResponse struct {
	Source string `json:"source"`
	Queued bool   `json:"queued"`
}

// IndexDocumentMessage is the payload on the indexing topic. One message per page.
type IndexDocumentMessage struct {
	Source string         `json:"source"`
	Pages  []DocumentPage `json:"pages"`
}

type DocumentPage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type IndexResult struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

type DocumentChunkResponse struct {
	Id         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	Page       int       `json:"page"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
}

type ListChunksRequest struct {
	Source string `query:"source"`
	Query  string `query:"q"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type ListChunksResponse struct {
	Total  int64                   `json:"total"`
	Chunks []DocumentChunkResponse `json:"chunks"`
}

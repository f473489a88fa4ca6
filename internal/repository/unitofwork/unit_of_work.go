package unitofwork

import (
	"context"

	"ikms-rag-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentChunkRepository() contract.DocumentChunkRepository
	CheckpointRepository() contract.CheckpointRepository
}

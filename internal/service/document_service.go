package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ikms-rag-be/internal/dto"
	"ikms-rag-be/internal/entity"
	"ikms-rag-be/internal/metrics"
	"ikms-rag-be/internal/pkg/logger"
	"ikms-rag-be/internal/repository/specification"
	"ikms-rag-be/internal/repository/unitofwork"
	"ikms-rag-be/pkg/embedding"
	"ikms-rag-be/pkg/utils"

	"github.com/google/uuid"
)

type IDocumentService interface {
	// Enqueue hands a document to the indexing consumer
	Enqueue(ctx context.Context, req *dto.IndexDocumentRequest) (*dto.IndexDocumentResponse, error)
	// Index splits, embeds and stores a document, replacing earlier chunks of the same source
	Index(ctx context.Context, doc *dto.IndexDocumentMessage) (*dto.IndexResult, error)
	ListChunks(ctx context.Context, req *dto.ListChunksRequest) (*dto.ListChunksResponse, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	publisherService  IPublisherService
	eventPublisher    IEventPublisher
	logger            logger.ILogger
	chunkSize         int
	chunkOverlap      int
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	publisherService IPublisherService,
	eventPublisher IEventPublisher,
	logger logger.ILogger,
	chunkSize, chunkOverlap int,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		publisherService:  publisherService,
		eventPublisher:    eventPublisher,
		logger:            logger,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
	}
}

func (s *documentService) Enqueue(ctx context.Context, req *dto.IndexDocumentRequest) (*dto.IndexDocumentResponse, error) {
	payload, err := json.Marshal(dto.IndexDocumentMessage{
		Source: req.Source,
		Pages:  []dto.DocumentPage{{Number: 0, Text: req.Text}},
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("enqueue document %s: %w", req.Source, err)
	}

	return &dto.IndexDocumentResponse{Source: req.Source, Queued: true}, nil
}

func (s *documentService) Index(ctx context.Context, doc *dto.IndexDocumentMessage) (*dto.IndexResult, error) {
	start := time.Now()
	var chunks []*entity.DocumentChunk

	for _, page := range doc.Pages {
		for _, text := range utils.SplitText(page.Text, s.chunkSize, s.chunkOverlap) {
			res, err := s.embeddingProvider.Generate(ctx, text, embedding.TaskRetrievalDocument)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %d of %s: %w", len(chunks), doc.Source, err)
			}
			chunks = append(chunks, &entity.DocumentChunk{
				Id:         uuid.New(),
				Source:     doc.Source,
				Page:       page.Number,
				ChunkIndex: len(chunks),
				Content:    text,
				Embedding:  res.Embedding.Values,
				CreatedAt:  time.Now(),
			})
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteBySource(ctx, doc.Source); err != nil {
		return nil, fmt.Errorf("delete old chunks of %s: %w", doc.Source, err)
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return nil, fmt.Errorf("store chunks of %s: %w", doc.Source, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	metrics.ChunksIndexedTotal.Add(float64(len(chunks)))
	s.logger.Info("DOCUMENT", "Document indexed", map[string]interface{}{
		"source":      doc.Source,
		"pages":       len(doc.Pages),
		"chunks":      len(chunks),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	result := &dto.IndexResult{Source: doc.Source, Chunks: len(chunks)}
	s.eventPublisher.PublishDocumentIndexed(ctx, *result)
	return result, nil
}

func (s *documentService) ListChunks(ctx context.Context, req *dto.ListChunksRequest) (*dto.ListChunksResponse, error) {
	var filters []specification.Specification
	if src := strings.TrimSpace(req.Source); src != "" {
		filters = append(filters, specification.BySource{Source: src})
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		filters = append(filters, specification.ContentSearch{Query: q})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentChunkRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.InDocumentOrder{},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	chunks, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.ListChunksResponse{
		Total:  total,
		Chunks: make([]dto.DocumentChunkResponse, len(chunks)),
	}
	for i, c := range chunks {
		res.Chunks[i] = dto.DocumentChunkResponse{
			Id:         c.Id,
			Source:     c.Source,
			Page:       c.Page,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
		}
	}
	return res, nil
}

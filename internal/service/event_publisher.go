package service

import (
	"context"

	"ikms-rag-be/internal/dto"
	"ikms-rag-be/internal/pkg/logger"
	pkgEvents "ikms-rag-be/pkg/events"
	pktNats "ikms-rag-be/pkg/nats"
)

// IEventPublisher emits QA activity events. Failures are logged, never returned.
type IEventPublisher interface {
	PublishQAAnswered(ctx context.Context, evt dto.QAAnsweredEvent)
	PublishQAFailed(ctx context.Context, sessionId, stage string)
	PublishDocumentIndexed(ctx context.Context, res dto.IndexResult)
}

type natsEventPublisher struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

// NewEventPublisher accepts a nil publisher when NATS is not configured
func NewEventPublisher(publisher *pktNats.Publisher, logger logger.ILogger) IEventPublisher {
	return &natsEventPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *natsEventPublisher) PublishQAAnswered(ctx context.Context, evt dto.QAAnsweredEvent) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeQAAnswered, map[string]interface{}{
		"session_id":    evt.SessionId,
		"question":      evt.Question,
		"answer_length": evt.AnswerLength,
		"sub_questions": evt.SubQuestions,
		"duration_ms":   evt.DurationMs,
	}))
}

func (p *natsEventPublisher) PublishQAFailed(ctx context.Context, sessionId, stage string) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeQAFailed, map[string]interface{}{
		"session_id": sessionId,
		"stage":      stage,
	}))
}

func (p *natsEventPublisher) PublishDocumentIndexed(ctx context.Context, res dto.IndexResult) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeDocumentIndexed, map[string]interface{}{
		"source": res.Source,
		"chunks": res.Chunks,
	}))
}

func (p *natsEventPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}

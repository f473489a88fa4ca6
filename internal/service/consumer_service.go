package service

import (
	"context"
	"encoding/json"

	"ikms-rag-be/internal/dto"
	"ikms-rag-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber      message.Subscriber
	topicName       string
	documentService IDocumentService
	logger          logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	documentService IDocumentService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:      subscriber,
		topicName:       topicName,
		documentService: documentService,
		logger:          logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// invalid payloads never succeed, ack to stop redelivery
		msg.Ack()
		return
	}

	if payload.Source == "" {
		cs.logger.Warn("CONSUMER", "Dropping document without source", map[string]interface{}{"message_id": msg.UUID})
		msg.Ack()
		return
	}

	if _, err := cs.documentService.Index(ctx, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to index document", map[string]interface{}{
			"source": payload.Source,
			"error":  err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}

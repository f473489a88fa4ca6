package service

import (
	"context"

	"ikms-rag-be/internal/pkg/logger"
	pkgEvents "ikms-rag-be/pkg/events"
	pktNats "ikms-rag-be/pkg/nats"
)

// IActivityService records QA activity events in a dedicated log
type IActivityService interface {
	Start(ctx context.Context) error
}

type activityService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewActivityService(subscriber *pktNats.Subscriber, activityLogger logger.ILogger) IActivityService {
	return &activityService{
		subscriber: subscriber,
		logger:     activityLogger,
	}
}

func (s *activityService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return nil
	}
	return s.subscriber.Subscribe(ctx, pktNats.Subject(">"), "qa-activity-log", s.handle)
}

func (s *activityService) handle(_ context.Context, event pkgEvents.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()

	if event.EventType() == pkgEvents.TypeQAFailed {
		s.logger.Warn("ACTIVITY", event.EventType(), details)
	} else {
		s.logger.Info("ACTIVITY", event.EventType(), details)
	}
	return nil
}

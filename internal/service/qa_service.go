package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ikms-rag-be/internal/dto"
	"ikms-rag-be/internal/metrics"
	"ikms-rag-be/internal/pkg/logger"
	"ikms-rag-be/pkg/rag/graph"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuestion = errors.New("invalid question")
	ErrSessionNotFound = errors.New("session not found")
)

type IQAService interface {
	Ask(ctx context.Context, req *dto.QuestionRequest) (*dto.QAResponse, error)
	GetHistory(ctx context.Context, sessionId string) (*dto.SessionHistoryResponse, error)
}

type qaService struct {
	runner         *graph.Runner
	eventPublisher IEventPublisher
	logger         logger.ILogger
}

func NewQAService(runner *graph.Runner, eventPublisher IEventPublisher, logger logger.ILogger) IQAService {
	return &qaService{
		runner:         runner,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *qaService) Ask(ctx context.Context, req *dto.QuestionRequest) (*dto.QAResponse, error) {
	var sessionId string
	if req.SessionId != nil {
		sessionId = *req.SessionId
	}
	// assigned here so failed runs are still logged and published under their session
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	start := time.Now()
	res, err := s.runner.Run(ctx, req.Question, sessionId)
	if err != nil {
		if errors.Is(err, graph.ErrEmptyQuestion) {
			metrics.QARequestsTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
		}

		metrics.QARequestsTotal.WithLabelValues("error").Inc()
		details := map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		}
		var stageErr *graph.StageError
		if errors.As(err, &stageErr) {
			details["stage"] = stageErr.Stage
			s.eventPublisher.PublishQAFailed(ctx, sessionId, stageErr.Stage)
		}
		s.logger.Error("QA", "Pipeline run failed", details)
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.QARequestsTotal.WithLabelValues("success").Inc()
	s.logger.Info("QA", "Question answered", map[string]interface{}{
		"session_id":    res.SessionID,
		"sub_questions": len(res.SubQuestions),
		"history_len":   len(res.Messages),
		"duration_ms":   elapsed.Milliseconds(),
	})

	answer := graph.StrValue(res.Answer)
	s.eventPublisher.PublishQAAnswered(ctx, dto.QAAnsweredEvent{
		SessionId:    res.SessionID,
		Question:     req.Question,
		AnswerLength: len(answer),
		SubQuestions: len(res.SubQuestions),
		DurationMs:   elapsed.Milliseconds(),
		AnsweredAt:   time.Now(),
	})

	return &dto.QAResponse{
		Answer:       answer,
		Context:      graph.StrValue(res.Context),
		Plan:         res.Plan,
		SubQuestions: res.SubQuestions,
		SessionId:    res.SessionID,
	}, nil
}

func (s *qaService) GetHistory(ctx context.Context, sessionId string) (*dto.SessionHistoryResponse, error) {
	messages, found, err := s.runner.History(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	res := &dto.SessionHistoryResponse{
		SessionId: sessionId,
		Messages:  make([]dto.ConversationMessageDTO, len(messages)),
	}
	for i, m := range messages {
		res.Messages[i] = dto.ConversationMessageDTO{Role: string(m.Role), Content: m.Content}
	}
	return res, nil
}

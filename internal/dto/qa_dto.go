package dto

import "time"

type QuestionRequest struct {
	Question  string  `json:"question" validate:"required,max=4000"`
	SessionId *string `json:"session_id,omitempty" validate:"omitempty,max=64"`
}

// QAResponse is returned bare, without the usual envelope
type QAResponse struct {
	Answer       string   `json:"answer"`
	Context      string   `json:"context"`
	Plan         *string  `json:"plan"`
	SubQuestions []string `json:"sub_questions"`
	SessionId    string   `json:"session_id"`
}

type ConversationMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SessionHistoryResponse struct {
	SessionId string                   `json:"session_id"`
	Messages  []ConversationMessageDTO `json:"messages"`
}

// QAAnsweredEvent is published after every answered question
type QAAnsweredEvent struct {
	SessionId    string    `json:"session_id"`
	Question     string    `json:"question"`
	AnswerLength int       `json:"answer_length"`
	SubQuestions int       `json:"sub_questions"`
	DurationMs   int64     `json:"duration_ms"`
	AnsweredAt   time.Time `json:"answered_at"`
}

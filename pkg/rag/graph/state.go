package graph

import (
	"ikms-rag-be/pkg/llm"
)

// ConversationMessage is one turn of the session history.
// Role is llm.RoleUser or llm.RoleAssistant.
type ConversationMessage struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

// State is threaded through every stage of a pipeline run.
// Nil pointers and a nil SubQuestions slice mean "not produced".
type State struct {
	Question     string                `json:"question"`
	Plan         *string               `json:"plan"`
	SubQuestions []string              `json:"sub_questions"`
	Context      *string               `json:"context"`
	DraftAnswer  *string               `json:"draft_answer"`
	Answer       *string               `json:"answer"`
	Messages     []ConversationMessage `json:"messages"`
}

// StateDelta is what a stage returns. Nil fields leave the state untouched;
// Messages are appended, never replaced.
type StateDelta struct {
	Plan         *string
	SubQuestions []string
	Context      *string
	DraftAnswer  *string
	Answer       *string
	Messages     []ConversationMessage
}

// Apply merges a stage delta into the state
func (s *State) Apply(d StateDelta) {
	if d.Plan != nil {
		s.Plan = d.Plan
	}
	if d.SubQuestions != nil {
		s.SubQuestions = append([]string(nil), d.SubQuestions...)
	}
	if d.Context != nil {
		s.Context = d.Context
	}
	if d.DraftAnswer != nil {
		s.DraftAnswer = d.DraftAnswer
	}
	if d.Answer != nil {
		s.Answer = d.Answer
	}
	if len(d.Messages) > 0 {
		s.Messages = append(s.Messages, d.Messages...)
	}
}

// Clone returns a copy that shares no slices with s
func (s State) Clone() State {
	out := s
	if s.SubQuestions != nil {
		out.SubQuestions = append([]string(nil), s.SubQuestions...)
	}
	if s.Messages != nil {
		out.Messages = append([]ConversationMessage(nil), s.Messages...)
	}
	return out
}

// Recent returns at most the last n history entries
func (s State) Recent(n int) []ConversationMessage {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// LastAssistantMessage returns the most recent assistant reply, if any
func (s State) LastAssistantMessage() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == llm.RoleAssistant {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}

// StrValue dereferences an optional string field
func StrValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Str returns a pointer to a copy of s
func Str(s string) *string {
	return &s
}

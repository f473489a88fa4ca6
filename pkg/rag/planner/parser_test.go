package planner

import (
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name             string
		content          string
		wantPlan         *string
		wantSubQuestions []string
	}{
		{
			name:             "empty input",
			content:          "",
			wantPlan:         nil,
			wantSubQuestions: nil,
		},
		{
			name:             "prose only",
			content:          "Vector databases are great.\nThey store embeddings.",
			wantPlan:         nil,
			wantSubQuestions: nil,
		},
		{
			name:             "plan and sub-questions",
			content:          "plan:\n1. A\n2. B\nsub_questions:\n- \"x\"\n- y",
			wantPlan:         strPtr("1. A\n2. B"),
			wantSubQuestions: []string{"x", "y"},
		},
		{
			name: "full planner answer with preamble",
			content: `original_question: "What are the advantages of vector databases?"

plan:
1. Search for advantages of vector databases
2. Search for comparison with traditional databases

sub_questions:
- "vector database advantages benefits"
- "vector database vs relational database comparison"`,
			wantPlan: strPtr("1. Search for advantages of vector databases\n2. Search for comparison with traditional databases"),
			wantSubQuestions: []string{
				"vector database advantages benefits",
				"vector database vs relational database comparison",
			},
		},
		{
			name:             "indented headers and items",
			content:          "   plan:\n   1. Indented step\n  sub_questions:\n    -   spaced query  ",
			wantPlan:         strPtr("1. Indented step"),
			wantSubQuestions: []string{"spaced query"},
		},
		{
			name:             "plan only",
			content:          "plan:\n1. Only step\nnot numbered",
			wantPlan:         strPtr("1. Only step"),
			wantSubQuestions: nil,
		},
		{
			name:             "sub-questions only",
			content:          "sub_questions:\n- alone",
			wantPlan:         nil,
			wantSubQuestions: []string{"alone"},
		},
		{
			name:             "headers embedded in prose are ignored",
			content:          "The plan: 1. do it\nthen sub_questions: - q",
			wantPlan:         nil,
			wantSubQuestions: nil,
		},
		{
			name:             "bullets before any header are dropped",
			content:          "- stray\n1. stray\nplan:\n- not numbered\n2. kept",
			wantPlan:         strPtr("2. kept"),
			wantSubQuestions: nil,
		},
		{
			name:             "section can be reopened",
			content:          "plan:\n1. first\nsub_questions:\n- a\nplan:\n2. second",
			wantPlan:         strPtr("1. first\n2. second"),
			wantSubQuestions: []string{"a"},
		},
		{
			name:             "windows line endings",
			content:          "plan:\r\n1. A\r\nsub_questions:\r\n- \"b\"\r\n",
			wantPlan:         strPtr("1. A"),
			wantSubQuestions: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, subQuestions := ParsePlan(tt.content)

			switch {
			case tt.wantPlan == nil && plan != nil:
				t.Errorf("plan = %q, want nil", *plan)
			case tt.wantPlan != nil && plan == nil:
				t.Errorf("plan = nil, want %q", *tt.wantPlan)
			case tt.wantPlan != nil && *plan != *tt.wantPlan:
				t.Errorf("plan = %q, want %q", *plan, *tt.wantPlan)
			}

			if tt.wantSubQuestions == nil {
				if subQuestions != nil {
					t.Errorf("subQuestions = %q, want nil", subQuestions)
				}
				return
			}
			if len(subQuestions) != len(tt.wantSubQuestions) {
				t.Fatalf("subQuestions = %q, want %q", subQuestions, tt.wantSubQuestions)
			}
			for i := range subQuestions {
				if subQuestions[i] != tt.wantSubQuestions[i] {
					t.Errorf("subQuestions[%d] = %q, want %q", i, subQuestions[i], tt.wantSubQuestions[i])
				}
			}
		})
	}
}

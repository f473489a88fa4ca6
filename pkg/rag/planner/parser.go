package planner

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	planHeader         = "plan:"
	subQuestionsHeader = "sub_questions:"
)

type section int

const (
	sectionNone section = iota
	sectionPlan
	sectionSubQuestions
)

// ParsePlan recovers the numbered plan and the bulleted sub-questions from
// free-text planner output. It is best effort and never fails: missing or
// malformed sections yield nil.
//
// A trimmed line starting with "plan:" or "sub_questions:" switches section.
// Inside the plan, lines starting with a digit are kept verbatim. Inside the
// sub-questions, lines starting with "-" are kept with dashes, spaces and
// surrounding double quotes removed. Everything else is dropped.
func ParsePlan(content string) (*string, []string) {
	if content == "" {
		return nil, nil
	}

	var planLines, subQuestions []string
	current := sectionNone

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, planHeader):
			current = sectionPlan
			continue
		case strings.HasPrefix(line, subQuestionsHeader):
			current = sectionSubQuestions
			continue
		}

		switch current {
		case sectionPlan:
			if startsWithDigit(line) {
				planLines = append(planLines, line)
			}
		case sectionSubQuestions:
			if strings.HasPrefix(line, "-") {
				query := strings.Trim(line, "- ")
				query = strings.Trim(query, `"`)
				subQuestions = append(subQuestions, query)
			}
		}
	}

	var plan *string
	if len(planLines) > 0 {
		joined := strings.Join(planLines, "\n")
		plan = &joined
	}
	if len(subQuestions) == 0 {
		subQuestions = nil
	}
	return plan, subQuestions
}

func startsWithDigit(line string) bool {
	if line == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsDigit(r)
}

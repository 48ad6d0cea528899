package survey

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt generates the natural-language system prompt for the
// voice model: interviewer instructions, the full question list with
// conditional-display annotations, and the tool-calling ground rules. The
// model sees every question up front so it can keep the conversation
// coherent, but must still drive navigation exclusively through the tools.
func BuildSystemPrompt(q *Questionnaire) string {
	var b strings.Builder

	b.WriteString("You are a professional survey interviewer conducting a voice interview")
	if q.Title != "" {
		fmt.Fprintf(&b, " for %q", q.Title)
	}
	b.WriteString(".\n\n")
	b.WriteString("Ask one question at a time, listen to the full answer, and keep a warm, neutral tone. ")
	b.WriteString("Never invent questions and never skip ahead on your own: after each answer call record_response, ")
	b.WriteString("then call get_next_question and ask exactly what it returns. ")
	b.WriteString("Use validate_answer when an answer may not fit the question's type before recording it. ")
	b.WriteString("When get_next_question reports completion, thank the respondent and end the interview.\n\n")

	fmt.Fprintf(&b, "The survey has %d questions:\n", len(q.Questions))
	for i := range q.Questions {
		question := &q.Questions[i]
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, question.Type, question.Text)
		if len(question.Options) > 0 {
			values := make([]string, 0, len(question.Options))
			for _, opt := range question.Options {
				values = append(values, opt.Value)
			}
			fmt.Fprintf(&b, " (options: %s)", strings.Join(values, ", "))
		}
		if question.Display != nil && len(question.Display.Conditions) > 0 {
			fmt.Fprintf(&b, " [asked only if %s]", describeConditions(question.Display))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func describeConditions(display *DisplayLogic) string {
	parts := make([]string, 0, len(display.Conditions))
	for _, c := range display.Conditions {
		parts = append(parts, describeCondition(c))
	}
	joiner := " and "
	if display.Mode == LogicOr {
		joiner = " or "
	}
	return strings.Join(parts, joiner)
}

func describeCondition(c Condition) string {
	switch c.Operator {
	case OpIsAnswered:
		return fmt.Sprintf("%s was answered", c.QuestionID)
	case OpIsNotAnswered:
		return fmt.Sprintf("%s was not answered", c.QuestionID)
	case OpEquals, OpEqualsStrict:
		return fmt.Sprintf("%s is %v", c.QuestionID, c.Value)
	case OpNotEquals:
		return fmt.Sprintf("%s is not %v", c.QuestionID, c.Value)
	case OpContains:
		return fmt.Sprintf("%s includes %v", c.QuestionID, c.Value)
	case OpGreaterThan:
		return fmt.Sprintf("%s > %v", c.QuestionID, c.Value)
	case OpGreaterOrEqual:
		return fmt.Sprintf("%s >= %v", c.QuestionID, c.Value)
	case OpLessThan:
		return fmt.Sprintf("%s < %v", c.QuestionID, c.Value)
	case OpLessOrEqual:
		return fmt.Sprintf("%s <= %v", c.QuestionID, c.Value)
	case OpIn:
		return fmt.Sprintf("%s is one of %v", c.QuestionID, c.Value)
	case OpNotIn:
		return fmt.Sprintf("%s is none of %v", c.QuestionID, c.Value)
	}
	return fmt.Sprintf("%s matches %v", c.QuestionID, c.Value)
}

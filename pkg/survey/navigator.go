package survey

import (
	"math"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

// RenderedQuestion is a question after display, skip, dynamic text, and
// dynamic option resolution.
type RenderedQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []Option     `json:"options,omitempty"`
	Index   int          `json:"index"`
}

// NextResult is the outcome of one navigation step. Completed and Question
// are mutually exclusive.
type NextResult struct {
	Question  *RenderedQuestion `json:"question,omitempty"`
	Completed bool              `json:"completed"`
	Progress  int               `json:"progress"`
}

// Next computes the next eligible question after currentIndex (-1 before the
// first advance) given the accumulated answers, or completion once the
// cursor reaches the end. Skip-logic jumps may move the cursor backward; a
// visited-index guard turns mutually-referencing skip targets into a
// questionnaire-logic error instead of an infinite loop.
func Next(q *Questionnaire, currentIndex int, answers map[string]any) (NextResult, error) {
	if q == nil {
		return NextResult{}, core.New(core.ErrQuestionnaireNotFound, "questionnaire definition missing")
	}
	total := len(q.Questions)
	visited := make(map[int]bool, total)

	idx := currentIndex + 1
	for idx < total {
		if visited[idx] {
			return NextResult{}, core.Newf(core.ErrQuestionnaireLogic,
				"skip logic cycle detected at question %q", q.Questions[idx].ID).
				WithContext("questionnaire_id", q.ID)
		}
		visited[idx] = true
		question := &q.Questions[idx]

		if question.Display != nil && !EvaluateSet(question.Display.Mode, question.Display.Conditions, answers) {
			idx++
			continue
		}

		if question.Skip != nil {
			if target, ok := firstSkipTarget(q, question.Skip, answers); ok {
				idx = target
				continue
			}
		}

		rendered := renderQuestion(question, idx, answers)
		return NextResult{
			Question: rendered,
			Progress: Progress(idx, total),
		}, nil
	}

	return NextResult{Completed: true, Progress: 100}, nil
}

// firstSkipTarget evaluates skip rules in order and returns the index of the
// first matching rule's target. Rules naming an unknown target id are
// ignored and evaluation continues.
func firstSkipTarget(q *Questionnaire, skip *SkipLogic, answers map[string]any) (int, bool) {
	for _, rule := range skip.Rules {
		if !Evaluate(rule.Condition, answers) {
			continue
		}
		if target := q.IndexOf(rule.TargetID); target >= 0 {
			return target, true
		}
	}
	return 0, false
}

// Progress is the percentage of the questionnaire reached at index.
func Progress(index, total int) int {
	if total <= 0 {
		return 0
	}
	if index >= total {
		return 100
	}
	if index < 0 {
		index = 0
	}
	return int(math.Round(float64(index) / float64(total) * 100))
}

func renderQuestion(question *Question, idx int, answers map[string]any) *RenderedQuestion {
	return &RenderedQuestion{
		ID:      question.ID,
		Text:    resolveText(question, answers),
		Type:    question.Type,
		Options: resolveOptions(question, answers),
		Index:   idx,
	}
}

// resolveText applies dynamic text: NPS score bands first, then ordered
// rules (first match wins), falling back to the static template.
func resolveText(question *Question, answers map[string]any) string {
	dt := question.DynamicText
	if dt == nil {
		return question.Text
	}
	if dt.ScoreBand != nil {
		if answer, ok := lookupAnswer(answers, dt.ScoreBand.SourceID); ok {
			if score, numeric := toFloat(answer); numeric {
				switch {
				case score <= 6:
					return dt.ScoreBand.Detractor
				case score <= 8:
					return dt.ScoreBand.Passive
				default:
					return dt.ScoreBand.Promoter
				}
			}
		}
		return question.Text
	}
	for _, rule := range dt.Rules {
		if Evaluate(rule.Condition, answers) {
			return rule.Text
		}
	}
	return question.Text
}

// resolveOptions filters options against a prior multi-select answer with
// include/exclude semantics. Without a usable prior answer the static
// options pass through unchanged.
func resolveOptions(question *Question, answers map[string]any) []Option {
	do := question.DynamicOptions
	if do == nil || len(question.Options) == 0 {
		return question.Options
	}
	answer, ok := lookupAnswer(answers, do.SourceID)
	if !ok {
		return question.Options
	}
	selected := answerValues(answer)
	if selected == nil {
		return question.Options
	}

	filtered := make([]Option, 0, len(question.Options))
	for _, opt := range question.Options {
		_, present := selected[opt.Value]
		if (do.Mode == FilterExclude) != present {
			filtered = append(filtered, opt)
		}
	}
	return filtered
}

// answerValues flattens a multi-select answer into a value set, or nil when
// the answer is not an array.
func answerValues(answer any) map[string]struct{} {
	switch items := answer.(type) {
	case []any:
		set := make(map[string]struct{}, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				set[s] = struct{}{}
			}
		}
		return set
	case []string:
		set := make(map[string]struct{}, len(items))
		for _, item := range items {
			set[item] = struct{}{}
		}
		return set
	}
	return nil
}

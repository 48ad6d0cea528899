package tools

import (
	"fmt"
	"strings"

	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

// validateValue checks a candidate answer against a question's declared type
// and options without committing it. An empty return means valid; otherwise
// the reason is phrased for the model to relay conversationally.
func validateValue(question *survey.Question, value any) string {
	switch question.Type {
	case survey.TypeRating:
		n, ok := toNumber(value)
		if !ok {
			return "a rating answer must be a number"
		}
		if n < 1 || n > 5 {
			return "a rating answer must be between 1 and 5"
		}
	case survey.TypeNPS:
		n, ok := toNumber(value)
		if !ok {
			return "an NPS answer must be a number"
		}
		if n < 0 || n > 10 {
			return "an NPS answer must be between 0 and 10"
		}
	case survey.TypeYesNo:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
		switch s {
		case "yes", "no", "true", "false":
		default:
			return "a yes/no answer must be yes or no"
		}
	case survey.TypeSingleChoice:
		s, ok := value.(string)
		if !ok {
			return "a choice answer must be a single option value"
		}
		if !optionExists(question.Options, s) {
			return fmt.Sprintf("%q is not one of the available options", s)
		}
	case survey.TypeMultiSelect:
		items, ok := toStringSlice(value)
		if !ok || len(items) == 0 {
			return "a multi-select answer must be a list of option values"
		}
		for _, item := range items {
			if !optionExists(question.Options, item) {
				return fmt.Sprintf("%q is not one of the available options", item)
			}
		}
	case survey.TypeOpenEnded, survey.TypeVoicePrompt:
		if strings.TrimSpace(fmt.Sprint(value)) == "" {
			return "the answer must not be empty"
		}
	}
	return ""
}

// normalizeValue collapses JSON decode shapes into the canonical stored
// form: numbers as float64, multi-select answers as []string, everything
// else trimmed strings or passed through.
func normalizeValue(value any, qt survey.QuestionType) any {
	switch qt {
	case survey.TypeRating, survey.TypeNPS:
		if n, ok := toNumber(value); ok {
			return n
		}
	case survey.TypeMultiSelect:
		if items, ok := toStringSlice(value); ok {
			return items
		}
	case survey.TypeYesNo:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
		if s == "true" {
			return "yes"
		}
		if s == "false" {
			return "no"
		}
		return s
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}

func optionExists(options []survey.Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toStringSlice(value any) ([]string, bool) {
	switch items := value.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

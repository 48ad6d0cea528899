package survey

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Evaluate applies a single condition against the accumulated answers.
// Unknown operators evaluate false.
func Evaluate(cond Condition, answers map[string]any) bool {
	answer, answered := lookupAnswer(answers, cond.QuestionID)

	switch cond.Operator {
	case OpIsAnswered:
		return answered
	case OpIsNotAnswered:
		return !answered
	}

	// All remaining operators require a prior answer.
	if !answered {
		return false
	}

	switch cond.Operator {
	case OpEquals:
		return looseEqual(answer, cond.Value)
	case OpEqualsStrict:
		return strictEqual(answer, cond.Value)
	case OpNotEquals:
		return !looseEqual(answer, cond.Value)
	case OpContains:
		return contains(answer, cond.Value)
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return compareNumeric(cond.Operator, answer, cond.Value)
	case OpIn:
		return memberOf(answer, cond.Value)
	case OpNotIn:
		return !memberOf(answer, cond.Value)
	}
	return false
}

// EvaluateSet applies a display-logic condition set: AND requires all
// conditions true, OR requires any. An empty set is true.
func EvaluateSet(mode LogicMode, conds []Condition, answers map[string]any) bool {
	if len(conds) == 0 {
		return true
	}
	switch mode {
	case LogicOr:
		for _, c := range conds {
			if Evaluate(c, answers) {
				return true
			}
		}
		return false
	default:
		// AND is the default combining mode.
		for _, c := range conds {
			if !Evaluate(c, answers) {
				return false
			}
		}
		return true
	}
}

func lookupAnswer(answers map[string]any, questionID string) (any, bool) {
	if answers == nil {
		return nil, false
	}
	v, ok := answers[questionID]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// looseEqual compares after numeric normalization, falling back to a
// case-sensitive string form comparison.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// strictEqual requires matching dynamic types as well as values.
func strictEqual(a, b any) bool {
	if fmt.Sprintf("%T", a) != fmt.Sprintf("%T", b) {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// contains is case-insensitive substring containment for string answers and
// membership for array answers.
func contains(answer, value any) bool {
	switch v := answer.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), strings.ToLower(fmt.Sprint(value)))
	case []any:
		for _, item := range v {
			if looseEqual(item, value) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if looseEqual(item, value) {
				return true
			}
		}
		return false
	}
	return false
}

func compareNumeric(op Operator, answer, value any) bool {
	af, aok := toFloat(answer)
	bf, bok := toFloat(value)
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGreaterThan:
		return af > bf
	case OpGreaterOrEqual:
		return af >= bf
	case OpLessThan:
		return af < bf
	case OpLessOrEqual:
		return af <= bf
	}
	return false
}

// memberOf reports whether the answer appears in the condition's value list.
func memberOf(answer, value any) bool {
	switch set := value.(type) {
	case []any:
		for _, item := range set {
			if looseEqual(answer, item) {
				return true
			}
		}
	case []string:
		for _, item := range set {
			if looseEqual(answer, item) {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

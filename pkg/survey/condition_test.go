package survey

import "testing"

func TestEvaluate_ExistenceOperators(t *testing.T) {
	answers := map[string]any{
		"q1": "yes",
		"q2": "",
		"q3": nil,
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"answered present", Condition{QuestionID: "q1", Operator: OpIsAnswered}, true},
		{"answered empty string", Condition{QuestionID: "q2", Operator: OpIsAnswered}, false},
		{"answered nil value", Condition{QuestionID: "q3", Operator: OpIsAnswered}, false},
		{"answered missing key", Condition{QuestionID: "q9", Operator: OpIsAnswered}, false},
		{"not answered missing key", Condition{QuestionID: "q9", Operator: OpIsNotAnswered}, true},
		{"not answered present", Condition{QuestionID: "q1", Operator: OpIsNotAnswered}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, answers); got != tt.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluate_LooseAndStrictEquality(t *testing.T) {
	answers := map[string]any{
		"score": float64(7),
		"name":  "Alice",
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"loose number vs string form", Condition{QuestionID: "score", Operator: OpEquals, Value: "7"}, true},
		{"loose number vs int", Condition{QuestionID: "score", Operator: OpEquals, Value: 7}, true},
		{"loose mismatch", Condition{QuestionID: "score", Operator: OpEquals, Value: 8}, false},
		{"strict type mismatch", Condition{QuestionID: "score", Operator: OpEqualsStrict, Value: "7"}, false},
		{"strict match", Condition{QuestionID: "score", Operator: OpEqualsStrict, Value: float64(7)}, true},
		{"not equals", Condition{QuestionID: "name", Operator: OpNotEquals, Value: "Bob"}, true},
		{"string case sensitive", Condition{QuestionID: "name", Operator: OpEquals, Value: "alice"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, answers); got != tt.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Contains(t *testing.T) {
	answers := map[string]any{
		"feedback": "The Onboarding was slow",
		"features": []any{"search", "export"},
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"substring case insensitive", Condition{QuestionID: "feedback", Operator: OpContains, Value: "onboarding"}, true},
		{"substring absent", Condition{QuestionID: "feedback", Operator: OpContains, Value: "pricing"}, false},
		{"array membership", Condition{QuestionID: "features", Operator: OpContains, Value: "export"}, true},
		{"array non-member", Condition{QuestionID: "features", Operator: OpContains, Value: "billing"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, answers); got != tt.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluate_NumericComparisons(t *testing.T) {
	answers := map[string]any{"nps": float64(8), "text": "abc"}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"gt true", Condition{QuestionID: "nps", Operator: OpGreaterThan, Value: 6}, true},
		{"gt boundary", Condition{QuestionID: "nps", Operator: OpGreaterThan, Value: 8}, false},
		{"gte boundary", Condition{QuestionID: "nps", Operator: OpGreaterOrEqual, Value: 8}, true},
		{"lt true", Condition{QuestionID: "nps", Operator: OpLessThan, Value: 9}, true},
		{"lte boundary", Condition{QuestionID: "nps", Operator: OpLessOrEqual, Value: 8}, true},
		{"numeric string answer", Condition{QuestionID: "nps", Operator: OpGreaterThan, Value: "7"}, true},
		{"non-numeric answer false", Condition{QuestionID: "text", Operator: OpGreaterThan, Value: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, answers); got != tt.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluate_InNotIn(t *testing.T) {
	answers := map[string]any{"plan": "pro"}
	in := Condition{QuestionID: "plan", Operator: OpIn, Value: []any{"pro", "enterprise"}}
	if !Evaluate(in, answers) {
		t.Errorf("Evaluate(in) = false, want true")
	}
	notIn := Condition{QuestionID: "plan", Operator: OpNotIn, Value: []string{"free", "trial"}}
	if !Evaluate(notIn, answers) {
		t.Errorf("Evaluate(not_in) = false, want true")
	}
}

func TestEvaluate_UnknownOperatorIsFalse(t *testing.T) {
	answers := map[string]any{"q1": "x"}
	cond := Condition{QuestionID: "q1", Operator: Operator("matches_regex"), Value: ".*"}
	if Evaluate(cond, answers) {
		t.Fatalf("Evaluate(unknown operator) = true, want false")
	}
}

func TestEvaluate_ValueOperatorsRequireAnswer(t *testing.T) {
	cond := Condition{QuestionID: "missing", Operator: OpEquals, Value: "x"}
	if Evaluate(cond, nil) {
		t.Fatalf("Evaluate on unanswered question = true, want false")
	}
}

func TestEvaluateSet(t *testing.T) {
	answers := map[string]any{"a": float64(5), "b": "no"}
	both := []Condition{
		{QuestionID: "a", Operator: OpEquals, Value: 5},
		{QuestionID: "b", Operator: OpEquals, Value: "no"},
	}
	oneFails := []Condition{
		{QuestionID: "a", Operator: OpEquals, Value: 5},
		{QuestionID: "b", Operator: OpEquals, Value: "yes"},
	}

	if !EvaluateSet(LogicAnd, both, answers) {
		t.Errorf("AND with all true = false, want true")
	}
	if EvaluateSet(LogicAnd, oneFails, answers) {
		t.Errorf("AND with one false = true, want false")
	}
	if !EvaluateSet(LogicOr, oneFails, answers) {
		t.Errorf("OR with one true = false, want true")
	}
	if !EvaluateSet(LogicAnd, nil, answers) {
		t.Errorf("empty set = false, want true")
	}
	// Unspecified mode combines as AND.
	if EvaluateSet("", oneFails, answers) {
		t.Errorf("default mode with one false = true, want false")
	}
}

package survey

import (
	"errors"
	"testing"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

func linearQuestionnaire() *Questionnaire {
	return &Questionnaire{
		ID: "qn_linear",
		Questions: []Question{
			{ID: "q1", Text: "How satisfied are you?", Type: TypeRating},
			{ID: "q2", Text: "Why?", Type: TypeOpenEnded},
			{ID: "q3", Text: "Would you return?", Type: TypeYesNo},
			{ID: "q4", Text: "Anything else?", Type: TypeOpenEnded},
		},
	}
}

func TestNext_WalksInOrder(t *testing.T) {
	q := linearQuestionnaire()
	res, err := Next(q, -1, nil)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Completed || res.Question == nil || res.Question.ID != "q1" {
		t.Fatalf("Next(-1) = %+v, want question q1", res)
	}
	if res.Question.Index != 0 {
		t.Errorf("Index = %d, want 0", res.Question.Index)
	}

	res, err = Next(q, 0, nil)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question == nil || res.Question.ID != "q2" {
		t.Fatalf("Next(0) = %+v, want question q2", res)
	}
}

func TestNext_CompletesPastEnd(t *testing.T) {
	q := linearQuestionnaire()
	res, err := Next(q, 3, nil)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !res.Completed || res.Question != nil {
		t.Fatalf("Next(last) = %+v, want completed", res)
	}
	if res.Progress != 100 {
		t.Errorf("Progress = %d, want 100", res.Progress)
	}
}

func TestNext_NilQuestionnaire(t *testing.T) {
	_, err := Next(nil, -1, nil)
	var canonical *core.Error
	if !errors.As(err, &canonical) || canonical.Code != core.ErrQuestionnaireNotFound {
		t.Fatalf("Next(nil) error = %v, want %s", err, core.ErrQuestionnaireNotFound)
	}
}

func TestNext_DisplayLogicHidesQuestion(t *testing.T) {
	q := &Questionnaire{
		ID: "qn_display",
		Questions: []Question{
			{ID: "q1", Text: "Rate us", Type: TypeNPS},
			{
				ID: "q2", Text: "What went wrong?", Type: TypeOpenEnded,
				Display: &DisplayLogic{
					Mode:       LogicAnd,
					Conditions: []Condition{{QuestionID: "q1", Operator: OpLessOrEqual, Value: 6}},
				},
			},
			{ID: "q3", Text: "Done", Type: TypeVoicePrompt},
		},
	}

	// Promoter score hides the follow-up entirely.
	res, err := Next(q, 0, map[string]any{"q1": float64(9)})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question == nil || res.Question.ID != "q3" {
		t.Fatalf("Next() = %+v, want q2 hidden, q3 shown", res)
	}

	// Detractor score shows it.
	res, err = Next(q, 0, map[string]any{"q1": float64(3)})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question == nil || res.Question.ID != "q2" {
		t.Fatalf("Next() = %+v, want q2 shown", res)
	}
}

func TestNext_SkipLogicFirstMatchWins(t *testing.T) {
	q := &Questionnaire{
		ID: "qn_skip",
		Questions: []Question{
			{
				ID: "q1", Text: "Screen", Type: TypeYesNo,
				Skip: &SkipLogic{Rules: []SkipRule{
					{Condition: Condition{QuestionID: "screen", Operator: OpEquals, Value: "no"}, TargetID: "q4"},
					{Condition: Condition{QuestionID: "screen", Operator: OpIsAnswered}, TargetID: "q3"},
				}},
			},
			{ID: "q2", Text: "Detail", Type: TypeOpenEnded},
			{ID: "q3", Text: "Alt", Type: TypeOpenEnded},
			{ID: "q4", Text: "Exit", Type: TypeVoicePrompt},
		},
	}

	// Both rules would match; the first in order wins.
	res, err := Next(q, -1, map[string]any{"screen": "no"})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question == nil || res.Question.ID != "q4" {
		t.Fatalf("Next() = %+v, want jump to q4", res)
	}

	// Only the second rule matches.
	res, err = Next(q, -1, map[string]any{"screen": "yes"})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question == nil || res.Question.ID != "q3" {
		t.Fatalf("Next() = %+v, want jump to q3", res)
	}
}

func TestNext_SkipToUnknownTargetIgnored(t *testing.T) {
	q := &Questionnaire{
		ID: "qn_badtarget",
		Questions: []Question{
			{
				ID: "q1", Text: "Screen", Type: TypeYesNo,
				Skip: &SkipLogic{Rules: []SkipRule{
					{Condition: Condition{QuestionID: "screen", Operator: OpIsAnswered}, TargetID: "nope"},
				}},
			},
			{ID: "q2", Text: "Next", Type: TypeOpenEnded},
		},
	}
	res, err := Next(q, -1, map[string]any{"screen": "yes"})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question == nil || res.Question.ID != "q1" {
		t.Fatalf("Next() = %+v, want q1 rendered when skip target is unknown", res)
	}
}

func TestNext_SkipCycleIsLogicError(t *testing.T) {
	always := Condition{QuestionID: "seed", Operator: OpIsAnswered}
	q := &Questionnaire{
		ID: "qn_cycle",
		Questions: []Question{
			{ID: "q1", Text: "A", Type: TypeYesNo,
				Skip: &SkipLogic{Rules: []SkipRule{{Condition: always, TargetID: "q2"}}}},
			{ID: "q2", Text: "B", Type: TypeYesNo,
				Skip: &SkipLogic{Rules: []SkipRule{{Condition: always, TargetID: "q1"}}}},
		},
	}
	_, err := Next(q, -1, map[string]any{"seed": "x"})
	var canonical *core.Error
	if !errors.As(err, &canonical) || canonical.Code != core.ErrQuestionnaireLogic {
		t.Fatalf("Next(cycle) error = %v, want %s", err, core.ErrQuestionnaireLogic)
	}
	if canonical.Recoverable {
		t.Errorf("cycle error recoverable = true, want false")
	}
}

func TestNext_ScoreBandText(t *testing.T) {
	q := &Questionnaire{
		ID: "qn_band",
		Questions: []Question{
			{ID: "nps", Text: "Score us", Type: TypeNPS},
			{
				ID: "why", Text: "Tell us more", Type: TypeOpenEnded,
				DynamicText: &DynamicText{ScoreBand: &ScoreBandText{
					SourceID:  "nps",
					Detractor: "What disappointed you?",
					Passive:   "What would make it great?",
					Promoter:  "What did you love?",
				}},
			},
		},
	}

	tests := []struct {
		name   string
		answer any
		want   string
	}{
		{"detractor low", float64(0), "What disappointed you?"},
		{"detractor boundary", float64(6), "What disappointed you?"},
		{"passive low", float64(7), "What would make it great?"},
		{"passive boundary", float64(8), "What would make it great?"},
		{"promoter", float64(9), "What did you love?"},
		{"promoter top", float64(10), "What did you love?"},
		{"non-numeric falls back", "dunno", "Tell us more"},
		{"missing falls back", nil, "Tell us more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := map[string]any{}
			if tt.answer != nil {
				answers["nps"] = tt.answer
			}
			res, err := Next(q, 0, answers)
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if res.Question == nil || res.Question.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Question.Text, tt.want)
			}
		})
	}
}

func TestNext_RuleBasedText(t *testing.T) {
	q := &Questionnaire{
		ID: "qn_rules",
		Questions: []Question{
			{ID: "plan", Text: "Which plan?", Type: TypeSingleChoice},
			{
				ID: "next", Text: "Generic question", Type: TypeOpenEnded,
				DynamicText: &DynamicText{Rules: []TextRule{
					{Condition: Condition{QuestionID: "plan", Operator: OpEquals, Value: "pro"}, Text: "Pro question"},
					{Condition: Condition{QuestionID: "plan", Operator: OpIsAnswered}, Text: "Fallback question"},
				}},
			},
		},
	}

	res, err := Next(q, 0, map[string]any{"plan": "pro"})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question.Text != "Pro question" {
		t.Errorf("Text = %q, want first matching rule", res.Question.Text)
	}

	res, err = Next(q, 0, nil)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if res.Question.Text != "Generic question" {
		t.Errorf("Text = %q, want static fallback", res.Question.Text)
	}
}

func TestNext_DynamicOptions(t *testing.T) {
	base := []Option{
		{Value: "search"}, {Value: "export"}, {Value: "billing"},
	}
	build := func(mode FilterMode) *Questionnaire {
		return &Questionnaire{
			ID: "qn_opts",
			Questions: []Question{
				{ID: "used", Text: "Which features did you use?", Type: TypeMultiSelect, Options: base},
				{
					ID: "fav", Text: "Pick one", Type: TypeSingleChoice, Options: base,
					DynamicOptions: &DynamicOptions{SourceID: "used", Mode: mode},
				},
			},
		}
	}
	optionValues := func(opts []Option) []string {
		vals := make([]string, len(opts))
		for i, o := range opts {
			vals[i] = o.Value
		}
		return vals
	}

	res, err := Next(build(FilterInclude), 0, map[string]any{"used": []string{"search", "export"}})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	got := optionValues(res.Question.Options)
	if len(got) != 2 || got[0] != "search" || got[1] != "export" {
		t.Errorf("include options = %v, want [search export]", got)
	}

	res, err = Next(build(FilterExclude), 0, map[string]any{"used": []string{"search", "export"}})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	got = optionValues(res.Question.Options)
	if len(got) != 1 || got[0] != "billing" {
		t.Errorf("exclude options = %v, want [billing]", got)
	}

	// No prior answer passes static options through.
	res, err = Next(build(FilterInclude), 0, nil)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(res.Question.Options) != len(base) {
		t.Errorf("options without source answer = %v, want all %d", res.Question.Options, len(base))
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		index, total, want int
	}{
		{0, 4, 0},
		{1, 4, 25},
		{2, 3, 67},
		{3, 4, 75},
		{4, 4, 100},
		{9, 4, 100},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.index, tt.total); got != tt.want {
			t.Errorf("Progress(%d, %d) = %d, want %d", tt.index, tt.total, got, tt.want)
		}
	}
}

// Package survey defines the immutable questionnaire model and the
// navigation engine that walks it against a respondent's accumulated
// answers.
package survey

import "encoding/json"

// QuestionType is the closed set of answer types.
type QuestionType string

const (
	TypeRating       QuestionType = "rating"
	TypeOpenEnded    QuestionType = "open_ended"
	TypeSingleChoice QuestionType = "single_choice"
	TypeMultiSelect  QuestionType = "multi_select"
	TypeYesNo        QuestionType = "yes_no"
	TypeNPS          QuestionType = "nps"
	TypeVoicePrompt  QuestionType = "voice_prompt"
)

// Valid reports whether the question type is a known member of the set.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeRating, TypeOpenEnded, TypeSingleChoice, TypeMultiSelect,
		TypeYesNo, TypeNPS, TypeVoicePrompt:
		return true
	}
	return false
}

// Operator is the closed set of condition operators. Unknown operators
// evaluate false.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpEqualsStrict   Operator = "equals_strict"
	OpNotEquals      Operator = "not_equals"
	OpContains       Operator = "contains"
	OpGreaterThan    Operator = "greater_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessThan       Operator = "less_than"
	OpLessOrEqual    Operator = "less_or_equal"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not_in"
	OpIsAnswered     Operator = "is_answered"
	OpIsNotAnswered  Operator = "is_not_answered"
)

// Condition references a prior question's answer. Value is unused for the
// existence operators.
type Condition struct {
	QuestionID string   `json:"question_id"`
	Operator   Operator `json:"operator"`
	Value      any      `json:"value,omitempty"`
}

// LogicMode combines a condition set.
type LogicMode string

const (
	LogicAnd LogicMode = "and"
	LogicOr  LogicMode = "or"
)

// DisplayLogic decides whether a question is shown at all.
type DisplayLogic struct {
	Mode       LogicMode   `json:"mode"`
	Conditions []Condition `json:"conditions"`
}

// SkipRule redirects navigation to a named target when its condition holds.
type SkipRule struct {
	Condition Condition `json:"condition"`
	TargetID  string    `json:"target_id"`
}

// SkipLogic is an ordered rule list; the first matching rule wins.
type SkipLogic struct {
	Rules []SkipRule `json:"rules"`
}

// ScoreBandText maps a prior NPS-style score onto band-specific prompt text.
type ScoreBandText struct {
	SourceID  string `json:"source_id"`
	Detractor string `json:"detractor"`
	Passive   string `json:"passive"`
	Promoter  string `json:"promoter"`
}

// TextRule substitutes prompt text when its condition holds.
type TextRule struct {
	Condition Condition `json:"condition"`
	Text      string    `json:"text"`
}

// DynamicText selects the rendered prompt text. Exactly one of ScoreBand or
// Rules is set; the static question text is the fallback.
type DynamicText struct {
	ScoreBand *ScoreBandText `json:"score_band,omitempty"`
	Rules     []TextRule     `json:"rules,omitempty"`
}

// FilterMode selects include or exclude semantics for option filtering.
type FilterMode string

const (
	FilterInclude FilterMode = "include"
	FilterExclude FilterMode = "exclude"
)

// DynamicOptions filters a question's options against a prior multi-select
// answer.
type DynamicOptions struct {
	SourceID string     `json:"source_id"`
	Mode     FilterMode `json:"mode"`
}

// Option is one selectable choice.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Question is one immutable questionnaire entry. ID and Text are the single
// canonical fields; legacy aliases are accepted only while decoding.
type Question struct {
	ID             string          `json:"id"`
	Text           string          `json:"text"`
	Type           QuestionType    `json:"type"`
	Options        []Option        `json:"options,omitempty"`
	Display        *DisplayLogic   `json:"display_logic,omitempty"`
	Skip           *SkipLogic      `json:"skip_logic,omitempty"`
	DynamicText    *DynamicText    `json:"dynamic_text,omitempty"`
	DynamicOptions *DynamicOptions `json:"dynamic_options,omitempty"`
}

// UnmarshalJSON accepts the legacy questionId/questionText aliases at the
// serialization edge and collapses them onto the canonical fields.
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	aux := struct {
		*alias
		QuestionID   string `json:"questionId"`
		QuestionText string `json:"questionText"`
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = aux.QuestionID
	}
	if q.Text == "" {
		q.Text = aux.QuestionText
	}
	return nil
}

// Questionnaire is an immutable, ordered question list. Never mutated after
// load.
type Questionnaire struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// IndexOf returns the position of a question id, or -1.
func (q *Questionnaire) IndexOf(id string) int {
	if q == nil {
		return -1
	}
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// QuestionByID returns the question with the given id, or nil.
func (q *Questionnaire) QuestionByID(id string) *Question {
	i := q.IndexOf(id)
	if i < 0 {
		return nil
	}
	return &q.Questions[i]
}

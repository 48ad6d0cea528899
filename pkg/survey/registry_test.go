package survey

import (
	"errors"
	"testing"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

func TestRegistry_AddGet(t *testing.T) {
	r := NewRegistry()
	q := &Questionnaire{ID: "qn_1", Questions: []Question{{ID: "q1", Text: "Hi", Type: TypeOpenEnded}}}
	if err := r.Add(q); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	got, err := r.Get("qn_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != q {
		t.Fatalf("Get() = %p, want the registered pointer %p", got, q)
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	var canonical *core.Error
	if !errors.As(err, &canonical) || canonical.Code != core.ErrQuestionnaireNotFound {
		t.Fatalf("Get(missing) error = %v, want %s", err, core.ErrQuestionnaireNotFound)
	}
}

func TestRegistry_AddRejectsMissingID(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(&Questionnaire{}); err == nil {
		t.Fatalf("Add(no id) error = nil, want validation error")
	}
}

func TestRegistry_LoadBytes(t *testing.T) {
	r := NewRegistry()
	q, err := r.LoadBytes([]byte(`{
		"id": "qn_json",
		"questions": [
			{"id": "q1", "text": "Rate us", "type": "rating"},
			{"questionId": "q2", "questionText": "Why?", "type": "open_ended"}
		]
	}`))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(q.Questions))
	}
	// Legacy aliases collapse onto the canonical fields.
	if q.Questions[1].ID != "q2" || q.Questions[1].Text != "Why?" {
		t.Errorf("aliased question = %+v, want id q2 text Why?", q.Questions[1])
	}
	if _, err := r.Get("qn_json"); err != nil {
		t.Errorf("Get after LoadBytes error = %v", err)
	}
}

func TestRegistry_LoadBytesMalformed(t *testing.T) {
	r := NewRegistry()
	if _, err := r.LoadBytes([]byte("{not json")); err == nil {
		t.Fatalf("LoadBytes(malformed) error = nil, want error")
	}
}

func TestQuestion_CanonicalFieldWinsOverAlias(t *testing.T) {
	r := NewRegistry()
	q, err := r.LoadBytes([]byte(`{
		"id": "qn_alias",
		"questions": [
			{"id": "canon", "questionId": "legacy", "text": "Canon", "questionText": "Legacy", "type": "yes_no"}
		]
	}`))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	if q.Questions[0].ID != "canon" || q.Questions[0].Text != "Canon" {
		t.Fatalf("question = %+v, want canonical fields to win", q.Questions[0])
	}
}

func TestQuestionnaire_Lookups(t *testing.T) {
	q := linearQuestionnaire()
	if got := q.IndexOf("q3"); got != 2 {
		t.Errorf("IndexOf(q3) = %d, want 2", got)
	}
	if got := q.IndexOf("nope"); got != -1 {
		t.Errorf("IndexOf(nope) = %d, want -1", got)
	}
	if got := q.QuestionByID("q2"); got == nil || got.Text != "Why?" {
		t.Errorf("QuestionByID(q2) = %+v, want Why?", got)
	}
	if got := q.QuestionByID("nope"); got != nil {
		t.Errorf("QuestionByID(nope) = %+v, want nil", got)
	}
}

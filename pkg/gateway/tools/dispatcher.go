// Package tools validates and executes the function calls the external
// voice model issues against session state.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

// Dispatcher executes model tool calls. Every outcome is a structured
// result: the model must always receive a reply it can fold back into the
// conversation, so validation failures and unknown tools are error results,
// never raised errors.
type Dispatcher struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewDispatcher(sessions *session.Manager, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sessions: sessions, logger: logger}
}

// Execute runs one tool call against the named session. State mutation goes
// through the session manager, never directly at the store.
func (d *Dispatcher) Execute(ctx context.Context, sessionID string, req protocol.ToolCallRequest) protocol.ToolCallResult {
	var result protocol.ToolCallResult
	switch req.Tool {
	case protocol.ToolRecordResponse:
		result = d.recordResponse(ctx, sessionID, req.Parameters)
	case protocol.ToolGetNextQuestion:
		result = d.nextQuestion(ctx, sessionID)
	case protocol.ToolValidateAnswer:
		result = d.validateAnswer(ctx, sessionID, req.Parameters)
	case protocol.ToolGetDemoContext:
		result = d.demoContext(ctx, sessionID)
	default:
		result = errorResult("tool %q not found", req.Tool)
	}

	if !result.Success {
		d.logger.Warn("tool call failed",
			"session_id", sessionID,
			"tool", req.Tool,
			"call_id", req.CallID,
			"error", result.Error)
	}
	return result
}

func (d *Dispatcher) recordResponse(ctx context.Context, sessionID string, params map[string]any) protocol.ToolCallResult {
	questionID, ok := stringParam(params, "question_id")
	if !ok {
		return errorResult("missing required parameter: question_id")
	}
	value, ok := params["value"]
	if !ok || value == nil {
		return errorResult("missing required parameter: value")
	}

	sess, err := d.sessions.Get(ctx, sessionID)
	if err != nil {
		return engineError(err)
	}
	q, err := d.sessions.Registry().Get(sess.QuestionnaireID)
	if err != nil {
		return engineError(err)
	}
	question := q.QuestionByID(questionID)
	if question == nil {
		return errorResult("question %q not found", questionID)
	}

	normalized := normalizeValue(value, question.Type)
	if _, err := d.sessions.Update(ctx, sessionID, func(s *session.Session) {
		s.RecordResponse(questionID, normalized, question.Type, s.LastActivity)
	}); err != nil {
		return engineError(err)
	}

	return protocol.ToolCallResult{
		Success: true,
		Data: map[string]any{
			"recorded":    true,
			"question_id": questionID,
			"value":       normalized,
		},
	}
}

func (d *Dispatcher) nextQuestion(ctx context.Context, sessionID string) protocol.ToolCallResult {
	sess, err := d.sessions.Get(ctx, sessionID)
	if err != nil {
		return engineError(err)
	}
	q, err := d.sessions.Registry().Get(sess.QuestionnaireID)
	if err != nil {
		return engineError(err)
	}

	next, err := survey.Next(q, sess.CurrentIndex, sess.Answers())
	if err != nil {
		return engineError(err)
	}
	if next.Completed {
		return protocol.ToolCallResult{
			Success: true,
			Data: map[string]any{
				"completed": true,
				"progress":  next.Progress,
			},
		}
	}

	if _, err := d.sessions.Update(ctx, sessionID, func(s *session.Session) {
		s.CurrentIndex = next.Question.Index
	}); err != nil {
		return engineError(err)
	}

	data := map[string]any{
		"question_id": next.Question.ID,
		"text":        next.Question.Text,
		"type":        next.Question.Type,
		"progress":    next.Progress,
	}
	if len(next.Question.Options) > 0 {
		data["options"] = next.Question.Options
	}
	return protocol.ToolCallResult{Success: true, Data: data}
}

func (d *Dispatcher) validateAnswer(ctx context.Context, sessionID string, params map[string]any) protocol.ToolCallResult {
	questionID, ok := stringParam(params, "question_id")
	if !ok {
		return errorResult("missing required parameter: question_id")
	}
	value, ok := params["value"]
	if !ok || value == nil {
		return errorResult("missing required parameter: value")
	}

	sess, err := d.sessions.Get(ctx, sessionID)
	if err != nil {
		return engineError(err)
	}
	q, err := d.sessions.Registry().Get(sess.QuestionnaireID)
	if err != nil {
		return engineError(err)
	}
	question := q.QuestionByID(questionID)
	if question == nil {
		return errorResult("question %q not found", questionID)
	}

	reason := validateValue(question, value)
	return protocol.ToolCallResult{
		Success: true,
		Data: map[string]any{
			"valid":  reason == "",
			"reason": reason,
		},
	}
}

func (d *Dispatcher) demoContext(ctx context.Context, sessionID string) protocol.ToolCallResult {
	sess, err := d.sessions.Get(ctx, sessionID)
	if err != nil {
		return engineError(err)
	}
	q, err := d.sessions.Registry().Get(sess.QuestionnaireID)
	if err != nil {
		return engineError(err)
	}

	return protocol.ToolCallResult{
		Success: true,
		Data: map[string]any{
			"questionnaire_id": q.ID,
			"title":            q.Title,
			"total_questions":  len(q.Questions),
			"answered":         sess.AnsweredCount(),
			"progress":         survey.Progress(sess.CurrentIndex, len(q.Questions)),
			"metadata":         sess.Metadata,
		},
	}
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func errorResult(format string, args ...any) protocol.ToolCallResult {
	return protocol.ToolCallResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// engineError folds an internal failure into a tool result. The model sees
// the canonical message only after redaction; raw causes stay server-side.
func engineError(err error) protocol.ToolCallResult {
	e := core.Classify(err)
	return protocol.ToolCallResult{Success: false, Error: core.Redact(e.Message)}
}

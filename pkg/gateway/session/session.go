// Package session owns the authoritative state of each interview session
// and its persistence to the durable store.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

// Status is the session state machine. Active is the only non-terminal
// state; there is no transition out of a terminal state.
type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
	StatusAbandoned  Status = "abandoned"
	StatusError      Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s != StatusActive && s != ""
}

// Response is one recorded answer. Later writes to the same question id
// overwrite the prior value: record once per question, last write wins.
type Response struct {
	Value      any                 `json:"value"`
	Type       survey.QuestionType `json:"type"`
	RecordedAt time.Time           `json:"recorded_at"`
}

// Turn is one entry in the ordered conversation history.
type Turn struct {
	Role        protocol.Role `json:"role"`
	Text        string        `json:"text"`
	TimestampMS int64         `json:"timestamp_ms"`
	Final       bool          `json:"final"`
	Number      int           `json:"turn"`
	Blocked     bool          `json:"blocked,omitempty"`
	BlockReason string        `json:"block_reason,omitempty"`
}

// VoiceConfig is the audio/voice configuration negotiated at start.
type VoiceConfig struct {
	VoiceID      string `json:"voice_id,omitempty"`
	SampleRateHz int    `json:"sample_rate_hz"`
	Channels     int    `json:"channels"`
}

// Session is the mutable aggregate root for one respondent's interview.
// The manager serializes nothing itself: callers process one inbound event
// per session at a time, and concurrent updates resolve last-write-wins.
type Session struct {
	ID              string              `json:"id"`
	QuestionnaireID string              `json:"questionnaire_id"`
	CurrentIndex    int                 `json:"current_index"`
	Responses       map[string]Response `json:"responses"`
	History         []Turn              `json:"history"`
	Voice           VoiceConfig         `json:"voice"`
	Status          Status              `json:"status"`
	UserID          string              `json:"user_id,omitempty"`
	ClientAddrHash  string              `json:"client_addr_hash,omitempty"`
	Metadata        map[string]string   `json:"metadata,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
	LastActivity    time.Time           `json:"last_activity"`
	EndedAt         time.Time           `json:"ended_at,omitempty"`
}

// RecordResponse writes an answer into the response map, replacing any
// prior value at the same question id.
func (s *Session) RecordResponse(questionID string, value any, qt survey.QuestionType, at time.Time) {
	if s.Responses == nil {
		s.Responses = make(map[string]Response)
	}
	s.Responses[questionID] = Response{Value: value, Type: qt, RecordedAt: at}
}

// Answers flattens the response map into the value form the navigation
// engine consumes.
func (s *Session) Answers() map[string]any {
	answers := make(map[string]any, len(s.Responses))
	for id, r := range s.Responses {
		answers[id] = r.Value
	}
	return answers
}

// AppendTurn adds a conversation history entry in arrival order.
func (s *Session) AppendTurn(t Turn) {
	s.History = append(s.History, t)
}

// AnsweredCount is the number of distinct questions answered.
func (s *Session) AnsweredCount() int {
	return len(s.Responses)
}

// Duration is the elapsed session time as of now, or the final duration once
// the session has ended.
func (s *Session) Duration(now time.Time) time.Duration {
	end := s.EndedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(s.StartedAt)
}

// Record is the durable audit snapshot persisted independently of the live
// session record, retained under a long TTL after the session is deleted.
type Record struct {
	SessionID       string              `json:"session_id"`
	QuestionnaireID string              `json:"questionnaire_id"`
	CurrentIndex    int                 `json:"current_index"`
	StartedAt       time.Time           `json:"started_at"`
	EndedAt         time.Time           `json:"ended_at"`
	DurationSeconds float64             `json:"duration_seconds"`
	Status          Status              `json:"status"`
	VoiceID         string              `json:"voice_id,omitempty"`
	Metadata        map[string]string   `json:"metadata,omitempty"`
	UserID          string              `json:"user_id,omitempty"`
	CompletionRate  int                 `json:"completion_rate"`
	ClientAddrHash  string              `json:"client_addr_hash,omitempty"`
	RecordingBucket string              `json:"recording_bucket,omitempty"`
	RecordingKey    string              `json:"recording_key,omitempty"`
	Responses       map[string]Response `json:"responses,omitempty"`
}

// HashClientAddr anonymizes a client address before it is persisted.
func HashClientAddr(addr string) string {
	if addr == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:16])
}

// Package protocol defines the wire contracts between the orchestration
// engine and its collaborators: the transport layer on one side and the
// external generative voice model on the other.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AudioSource identifies which side of the call produced an audio chunk.
type AudioSource string

const (
	AudioSourceUser      AudioSource = "user"
	AudioSourceAssistant AudioSource = "assistant"
)

// DecodeError reports a malformed inbound message.
type DecodeError struct {
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

// ToolCallRequest is a function call issued by the model.
type ToolCallRequest struct {
	Tool       string         `json:"tool"`
	CallID     string         `json:"call_id"`
	Parameters map[string]any `json:"parameters"`
}

// ToolCallResult is the structured reply relayed back to the model.
// Data and Error are mutually exclusive; the model always receives a result,
// never a raised failure, so the conversation can continue gracefully.
type ToolCallResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ToolSchema declares one callable function to the model.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// SessionStartRequest opens a new interview session.
type SessionStartRequest struct {
	QuestionnaireID string `json:"questionnaire_id"`
	VoiceID         string `json:"voice_id,omitempty"`
	UserID          string `json:"user_id,omitempty"`
}

// SessionStartResponse carries everything the model integration layer needs
// to begin the conversation.
type SessionStartResponse struct {
	SessionID     string                   `json:"session_id"`
	SystemPrompt  string                   `json:"system_prompt"`
	Tools         []ToolSchema             `json:"tools"`
	FirstQuestion *survey.RenderedQuestion `json:"first_question,omitempty"`
}

// TranscriptEvent is one conversation turn delivered by the transport layer.
// Blocked and BlockReason are supplied by the external moderation
// collaborator before ingestion.
type TranscriptEvent struct {
	SessionID   string `json:"session_id"`
	Role        Role   `json:"role"`
	Text        string `json:"text"`
	TimestampMS int64  `json:"timestamp_ms"`
	Final       bool   `json:"final"`
	Turn        int    `json:"turn"`
	Blocked     bool   `json:"blocked,omitempty"`
	BlockReason string `json:"block_reason,omitempty"`
}

// AudioChunkEvent is an inbound base64 audio payload.
type AudioChunkEvent struct {
	SessionID string      `json:"session_id"`
	Source    AudioSource `json:"source"`
	AudioB64  string      `json:"audio"`
}

// EndReason explains why a session ended.
type EndReason string

const (
	EndCompleted  EndReason = "completed"
	EndTerminated EndReason = "terminated"
	EndError      EndReason = "error"
)

// SessionEndRequest closes a session.
type SessionEndRequest struct {
	SessionID string    `json:"session_id"`
	Reason    EndReason `json:"reason"`
}

// RecordingLocator points at the stored recording artifact.
type RecordingLocator struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// SessionEndResponse summarizes the finished session.
type SessionEndResponse struct {
	SessionID         string            `json:"session_id"`
	DurationSeconds   float64           `json:"duration_seconds"`
	QuestionsAnswered int               `json:"questions_answered"`
	Recording         *RecordingLocator `json:"recording,omitempty"`
}

// DecodeToolCall parses and validates a tool-call request frame.
func DecodeToolCall(data []byte) (ToolCallRequest, error) {
	var req ToolCallRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ToolCallRequest{}, &DecodeError{Message: "malformed tool call"}
	}
	if strings.TrimSpace(req.Tool) == "" {
		return ToolCallRequest{}, &DecodeError{Message: "tool name is required", Param: "tool"}
	}
	return req, nil
}

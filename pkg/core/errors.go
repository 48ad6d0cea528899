package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrorCode categorizes engine failures.
type ErrorCode string

const (
	// Transport / connection.
	ErrConnection ErrorCode = "connection_error"
	ErrTimeout    ErrorCode = "timeout_error"

	// External generative voice model.
	ErrModelAuth               ErrorCode = "model_auth_error"
	ErrModelRateLimit          ErrorCode = "model_rate_limit_error"
	ErrModelStream             ErrorCode = "model_stream_error"
	ErrModelToolTimeout        ErrorCode = "model_tool_timeout"
	ErrModelToolError          ErrorCode = "model_tool_error"
	ErrModelSessionNotFound    ErrorCode = "model_session_not_found"
	ErrModelDisconnectRequest  ErrorCode = "model_disconnect_requested"
	ErrModelReconnectExhausted ErrorCode = "model_reconnect_exhausted"

	// Durable key-value store.
	ErrStoreWrite      ErrorCode = "store_write_error"
	ErrStoreRead       ErrorCode = "store_read_error"
	ErrStoreConnection ErrorCode = "store_connection_error"
	ErrStoreThrottled  ErrorCode = "store_throttled"

	// Audio pipeline.
	ErrAudioProcessing ErrorCode = "audio_processing_error"

	// Questionnaire logic.
	ErrQuestionnaireLogic    ErrorCode = "questionnaire_logic_error"
	ErrQuestionnaireNotFound ErrorCode = "questionnaire_not_found"

	// Tool execution.
	ErrToolExecution ErrorCode = "tool_execution_error"
	ErrToolNotFound  ErrorCode = "tool_not_found"

	// Session.
	ErrSessionExpired  ErrorCode = "session_expired"
	ErrSessionNotFound ErrorCode = "session_not_found"
	ErrSessionInvalid  ErrorCode = "session_invalid"

	// Generic.
	ErrInternal     ErrorCode = "internal_error"
	ErrValidation   ErrorCode = "validation_error"
	ErrUnauthorized ErrorCode = "unauthorized"
	ErrForbidden    ErrorCode = "forbidden"
)

// recoverableByCode holds the static recoverability default for each code.
// Unknown codes default to non-recoverable.
var recoverableByCode = map[ErrorCode]bool{
	ErrConnection:              true,
	ErrTimeout:                 true,
	ErrModelAuth:               false,
	ErrModelRateLimit:          true,
	ErrModelStream:             true,
	ErrModelToolTimeout:        true,
	ErrModelToolError:          true,
	ErrModelSessionNotFound:    false,
	ErrModelDisconnectRequest:  false,
	ErrModelReconnectExhausted: false,
	ErrStoreWrite:              true,
	ErrStoreRead:               true,
	ErrStoreConnection:         false,
	ErrStoreThrottled:          true,
	ErrAudioProcessing:         false,
	ErrQuestionnaireLogic:      false,
	ErrQuestionnaireNotFound:   false,
	ErrToolExecution:           true,
	ErrToolNotFound:            false,
	ErrSessionExpired:          false,
	ErrSessionNotFound:         false,
	ErrSessionInvalid:          false,
	ErrInternal:                false,
	ErrValidation:              false,
	ErrUnauthorized:            false,
	ErrForbidden:               false,
}

// Error is the canonical engine error. It carries a closed code, a
// recoverability flag (defaulted per code, overridable per instance), and
// optional session context for logging. The raw Message never crosses the
// session boundary; callers use UserMessage for anything user-facing.
type Error struct {
	Code        ErrorCode
	Message     string
	Recoverable bool
	SessionID   string
	Context     map[string]any
	Cause       error
}

// New creates an Error with the code's default recoverability.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:        code,
		Message:     message,
		Recoverable: recoverableByCode[code],
	}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an Error around an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error wrapping.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithSession attaches the originating session id.
func (e *Error) WithSession(sessionID string) *Error {
	if e == nil {
		return nil
	}
	e.SessionID = sessionID
	return e
}

// WithRecoverable overrides the code's static recoverability default.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	if e == nil {
		return nil
	}
	e.Recoverable = recoverable
	return e
}

// WithContext attaches a free-form logging attribute.
func (e *Error) WithContext(key string, value any) *Error {
	if e == nil {
		return nil
	}
	if e.Context == nil {
		e.Context = make(map[string]any, 4)
	}
	e.Context[key] = value
	return e
}

// Classify maps an arbitrary error to a canonical *Error. Already-canonical
// errors pass through. Context cancellation and deadline errors map to
// timeout. Everything unknown maps conservatively to a non-recoverable
// internal error so that callers never retry a failure they cannot name.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var canonical *Error
	if errors.As(err, &canonical) && canonical != nil {
		return canonical
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, "operation timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(ErrTimeout, "operation cancelled", err).WithRecoverable(false)
	}
	return Wrap(ErrInternal, "internal error", err)
}

// userMessageByCode holds the fixed user-facing message per code. These are
// the only strings allowed across the session boundary.
var userMessageByCode = map[ErrorCode]string{
	ErrConnection:              "We're having trouble with the connection. Please hold on.",
	ErrTimeout:                 "That took longer than expected. Please try again.",
	ErrModelAuth:               "The interview service is unavailable right now.",
	ErrModelRateLimit:          "The service is busy. One moment, please.",
	ErrModelStream:             "We hit a brief interruption. Please continue.",
	ErrModelToolTimeout:        "That took longer than expected. Please try again.",
	ErrModelToolError:          "Something went wrong processing that answer.",
	ErrModelSessionNotFound:    "This interview session has ended.",
	ErrModelDisconnectRequest:  "This interview session has ended.",
	ErrModelReconnectExhausted: "We lost the connection and couldn't restore it.",
	ErrStoreWrite:              "Something went wrong saving your answer.",
	ErrStoreRead:               "Something went wrong loading the interview.",
	ErrStoreConnection:         "The interview service is unavailable right now.",
	ErrStoreThrottled:          "The service is busy. One moment, please.",
	ErrAudioProcessing:         "We had trouble with the audio.",
	ErrQuestionnaireLogic:      "Something went wrong with this survey.",
	ErrQuestionnaireNotFound:   "This survey could not be found.",
	ErrToolExecution:           "Something went wrong processing that answer.",
	ErrToolNotFound:            "Something went wrong processing that answer.",
	ErrSessionExpired:          "This interview session has expired.",
	ErrSessionNotFound:         "This interview session could not be found.",
	ErrSessionInvalid:          "This interview session is no longer valid.",
	ErrValidation:              "That answer doesn't look right. Could you try again?",
	ErrUnauthorized:            "You're not authorized for this interview.",
	ErrForbidden:               "You're not authorized for this interview.",
}

// UserMessage returns the fixed user-facing message for the error. Internal
// detail never leaks: unknown codes fall back to a generic message.
func (e *Error) UserMessage() string {
	if e == nil {
		return ""
	}
	if msg, ok := userMessageByCode[e.Code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

var (
	redactCredentials = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|bearer|authorization)\s*[=:]\s*\S+`)
	redactLongToken   = regexp.MustCompile(`\b[A-Za-z0-9_\-]{24,}\b`)
	redactFilePath    = regexp.MustCompile(`(?:/[\w.\-]+){2,}`)
	redactHostPort    = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?::\d{1,5})?\b`)
)

// Redact strips credentials, long opaque tokens, file paths, and network
// addresses from a message so it can appear in client-visible diagnostics.
func Redact(message string) string {
	message = redactCredentials.ReplaceAllString(message, "$1=[redacted]")
	message = redactLongToken.ReplaceAllString(message, "[redacted]")
	message = redactFilePath.ReplaceAllString(message, "[path]")
	message = redactHostPort.ReplaceAllString(message, "[addr]")
	return strings.TrimSpace(message)
}

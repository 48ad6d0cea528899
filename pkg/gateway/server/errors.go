package server

import (
	"encoding/json"
	"net/http"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

// wireError is the sanitized error shape that crosses the session boundary:
// fixed user-facing message, code, and recoverability flag only.
type wireError struct {
	Code        core.ErrorCode `json:"code"`
	Message     string         `json:"message"`
	Recoverable bool           `json:"recoverable"`
	RequestID   string         `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error wireError `json:"error"`
}

func writeError(w http.ResponseWriter, requestID string, err error) {
	e := core.Classify(err)
	writeJSON(w, statusFromCode(e.Code), errorEnvelope{Error: wireError{
		Code:        e.Code,
		Message:     e.UserMessage(),
		Recoverable: e.Recoverable,
		RequestID:   requestID,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFromCode(code core.ErrorCode) int {
	switch code {
	case core.ErrValidation:
		return http.StatusBadRequest
	case core.ErrUnauthorized, core.ErrModelAuth:
		return http.StatusUnauthorized
	case core.ErrForbidden:
		return http.StatusForbidden
	case core.ErrSessionNotFound, core.ErrQuestionnaireNotFound, core.ErrToolNotFound:
		return http.StatusNotFound
	case core.ErrSessionExpired, core.ErrSessionInvalid:
		return http.StatusGone
	case core.ErrModelRateLimit, core.ErrStoreThrottled:
		return http.StatusTooManyRequests
	case core.ErrTimeout, core.ErrModelToolTimeout:
		return http.StatusGatewayTimeout
	case core.ErrConnection, core.ErrStoreConnection, core.ErrModelStream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

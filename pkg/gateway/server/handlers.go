package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/mw"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.lifecycle.IsDraining() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, reqID, core.New(core.ErrValidation, "method not allowed"))
		return
	}
	if s.lifecycle.IsDraining() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}

	var req protocol.SessionStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, core.New(core.ErrValidation, "malformed session start request"))
		return
	}
	if req.QuestionnaireID == "" {
		writeError(w, reqID, core.New(core.ErrValidation, "questionnaire_id is required"))
		return
	}

	resp, err := s.sessions.Start(r.Context(), req, r.RemoteAddr)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	s.recorder.Init(resp.SessionID)
	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, reqID, core.New(core.ErrValidation, "method not allowed"))
		return
	}

	var req protocol.SessionEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, core.New(core.ErrValidation, "malformed session end request"))
		return
	}
	if req.SessionID == "" {
		writeError(w, reqID, core.New(core.ErrValidation, "session_id is required"))
		return
	}
	if req.Reason == "" {
		req.Reason = protocol.EndTerminated
	}

	sess, err := s.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	locator := s.finalizeRecording(r.Context(), sess)
	resp, err := s.sessions.End(r.Context(), req, locator)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	if s.metrics != nil {
		s.metrics.SessionsActive.Dec()
		s.metrics.SessionsTotal.WithLabelValues(string(req.Reason)).Inc()
		s.metrics.SessionDuration.Observe(resp.DurationSeconds)
	}
	writeJSON(w, http.StatusOK, resp)
}

// finalizeRecording assembles and uploads the session's recording through
// the recovery controller. Upload failure never blocks the session end; it
// is logged and the summary simply omits the locator.
func (s *Server) finalizeRecording(ctx context.Context, sess *session.Session) *protocol.RecordingLocator {
	var locator *protocol.RecordingLocator
	outcome := s.recovery.Execute(ctx, sess.ID, "recording_upload", func(ctx context.Context) error {
		meta, err := s.recorder.Finalize(ctx, sess.ID, sess.QuestionnaireID)
		if err != nil {
			return err
		}
		if meta != nil {
			locator = meta.Locator()
		}
		return nil
	})
	if outcome.Err != nil {
		s.recorder.Discard(sess.ID)
		return nil
	}
	return locator
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, reqID, core.New(core.ErrValidation, "method not allowed"))
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		protocol.ToolCallRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, core.New(core.ErrValidation, "malformed tool call"))
		return
	}
	if req.SessionID == "" {
		writeError(w, reqID, core.New(core.ErrValidation, "session_id is required"))
		return
	}

	result := s.dispatcher.Execute(r.Context(), req.SessionID, req.ToolCallRequest)
	if s.metrics != nil {
		outcome := "ok"
		if !result.Success {
			outcome = "error"
		}
		s.metrics.ToolCallsTotal.WithLabelValues(req.Tool, outcome).Inc()
	}
	// Tool results are always 200: the model consumes structured failure.
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, reqID, core.New(core.ErrValidation, "method not allowed"))
		return
	}

	var ev protocol.TranscriptEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, reqID, core.New(core.ErrValidation, "malformed transcript event"))
		return
	}
	if ev.SessionID == "" {
		writeError(w, reqID, core.New(core.ErrValidation, "session_id is required"))
		return
	}

	if err := s.ingestTranscript(r.Context(), ev); err != nil {
		var canonical *core.Error
		if errors.As(err, &canonical) && canonical.Code == core.ErrSessionNotFound {
			writeError(w, reqID, err)
			return
		}
		// A store write failure must not interrupt the conversation.
		s.recovery.ObserveNonFatal(ev.SessionID, "transcript_persist", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) ingestTranscript(ctx context.Context, ev protocol.TranscriptEvent) error {
	_, err := s.sessions.Update(ctx, ev.SessionID, func(sess *session.Session) {
		sess.AppendTurn(session.Turn{
			Role:        ev.Role,
			Text:        ev.Text,
			TimestampMS: ev.TimestampMS,
			Final:       ev.Final,
			Number:      ev.Turn,
			Blocked:     ev.Blocked,
			BlockReason: ev.BlockReason,
		})
	})
	return err
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeError(w, reqID, core.New(core.ErrValidation, "method not allowed"))
		return
	}

	var ev protocol.AudioChunkEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, reqID, core.New(core.ErrValidation, "malformed audio event"))
		return
	}
	if ev.SessionID == "" {
		writeError(w, reqID, core.New(core.ErrValidation, "session_id is required"))
		return
	}

	s.recorder.Init(ev.SessionID)
	if err := s.recorder.AppendBase64(ev.SessionID, ev.Source, ev.AudioB64); err != nil {
		writeError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

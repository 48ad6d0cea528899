package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/mw"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
)

// liveFrame is the envelope for text frames on the live socket. Binary
// frames carry raw caller PCM and have no envelope.
type liveFrame struct {
	Type       string                    `json:"type"`
	ToolCall   *protocol.ToolCallRequest `json:"tool_call,omitempty"`
	Transcript *protocol.TranscriptEvent `json:"transcript,omitempty"`
	Audio      *protocol.AudioChunkEvent `json:"audio,omitempty"`
}

type liveResult struct {
	Type   string                   `json:"type"`
	CallID string                   `json:"call_id,omitempty"`
	Result *protocol.ToolCallResult `json:"result,omitempty"`
	Code   string                   `json:"code,omitempty"`
	Reason string                   `json:"reason,omitempty"`
}

// liveConn serializes writes to one websocket connection.
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	cfg  liveWriteConfig
}

type liveWriteConfig struct {
	writeTimeout time.Duration
}

func (c *liveConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	}
	return c.conn.WriteJSON(v)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodGet {
		writeError(w, reqID, core.New(core.ErrValidation, "method not allowed"))
		return
	}
	if s.lifecycle.IsDraining() {
		writeError(w, reqID, core.New(core.ErrConnection, "engine is draining"))
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, reqID, core.New(core.ErrValidation, "session_id is required"))
		return
	}
	if _, err := s.sessions.Get(r.Context(), sessionID); err != nil {
		writeError(w, reqID, err)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.cfg.WSMaxAudioFrameBytes > 0 {
		conn.SetReadLimit(int64(s.cfg.WSMaxAudioFrameBytes) * 4)
	}

	lc := &liveConn{conn: conn, cfg: liveWriteConfig{writeTimeout: s.cfg.WSWriteTimeout}}

	// CloseModel tells the integration side to wind down its upstream
	// connection; ForceDisconnect drops the socket outright.
	unregister := s.tracker.Register(sessionID, session.Handle{
		CloseModel: func() error {
			return lc.writeJSON(liveResult{Type: "session_warning", Code: "draining", Reason: "engine is draining, finish the current turn"})
		},
		ForceDisconnect: func() { _ = conn.Close() },
	})
	defer unregister()

	s.recorder.Init(sessionID)
	s.logger.Info("live socket open", "session_id", sessionID, "request_id", reqID)

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("live socket closed abnormally", "session_id", sessionID, "error", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			s.recorder.Append(sessionID, protocol.AudioSourceUser, frame)
		case websocket.TextMessage:
			if done := s.handleLiveFrame(r, lc, sessionID, frame); done {
				return
			}
		}
	}
}

// handleLiveFrame processes one text frame. Returns true when the
// client asked to end the stream.
func (s *Server) handleLiveFrame(r *http.Request, lc *liveConn, sessionID string, frame []byte) bool {
	var msg liveFrame
	if err := json.Unmarshal(frame, &msg); err != nil {
		_ = lc.writeJSON(liveResult{Type: "error", Code: "bad_frame", Reason: "malformed frame"})
		return false
	}

	switch msg.Type {
	case "tool_call":
		if msg.ToolCall == nil {
			_ = lc.writeJSON(liveResult{Type: "error", Code: "bad_frame", Reason: "tool_call payload missing"})
			return false
		}
		result := s.dispatcher.Execute(r.Context(), sessionID, *msg.ToolCall)
		if s.metrics != nil {
			outcome := "ok"
			if !result.Success {
				outcome = "error"
			}
			s.metrics.ToolCallsTotal.WithLabelValues(msg.ToolCall.Tool, outcome).Inc()
		}
		_ = lc.writeJSON(liveResult{Type: "tool_result", CallID: msg.ToolCall.CallID, Result: &result})
	case "transcript":
		if msg.Transcript == nil {
			return false
		}
		ev := *msg.Transcript
		ev.SessionID = sessionID
		if err := s.ingestTranscript(r.Context(), ev); err != nil {
			s.recovery.ObserveNonFatal(sessionID, "transcript_persist", err)
		}
	case "audio":
		if msg.Audio == nil {
			return false
		}
		if err := s.recorder.AppendBase64(sessionID, msg.Audio.Source, msg.Audio.AudioB64); err != nil {
			_ = lc.writeJSON(liveResult{Type: "error", Code: "bad_audio", Reason: "audio payload could not be decoded"})
		}
	case "end":
		return true
	default:
		_ = lc.writeJSON(liveResult{Type: "error", Code: "unknown_frame", Reason: "unrecognized frame type"})
	}
	return false
}

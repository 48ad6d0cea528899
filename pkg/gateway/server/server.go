// Package server is the thin transport surface over the orchestration
// engine. All survey logic is delegated inward; handlers only decode,
// dispatch, and encode.
package server

import (
	"log/slog"
	"net/http"

	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/audio"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/config"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/lifecycle"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/metrics"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/mw"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/recovery"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/tools"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	sessions   *session.Manager
	dispatcher *tools.Dispatcher
	recorder   *audio.Recorder
	tracker    *session.Tracker
	lifecycle  *lifecycle.Lifecycle
	metrics    *metrics.Metrics
	recovery   *recovery.Controller
}

// Deps are the constructed dependencies injected at startup.
type Deps struct {
	Sessions   *session.Manager
	Dispatcher *tools.Dispatcher
	Recorder   *audio.Recorder
	Tracker    *session.Tracker
	Lifecycle  *lifecycle.Lifecycle
	Metrics    *metrics.Metrics
	Recovery   *recovery.Controller
}

func New(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		tracker:    deps.Tracker,
		lifecycle:  deps.Lifecycle,
		metrics:    deps.Metrics,
		recovery:   deps.Recovery,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("/v1/sessions", s.handleSessionStart)
	s.mux.HandleFunc("/v1/sessions/end", s.handleSessionEnd)
	s.mux.HandleFunc("/v1/tool-calls", s.handleToolCall)
	s.mux.HandleFunc("/v1/transcripts", s.handleTranscript)
	s.mux.HandleFunc("/v1/audio", s.handleAudio)
	s.mux.HandleFunc("/v1/live", s.handleLive)
}

// Handler wraps the mux in the middleware onion.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Lifecycle exposes the draining flag holder for the shutdown coordinator.
func (s *Server) Lifecycle() *lifecycle.Lifecycle {
	return s.lifecycle
}

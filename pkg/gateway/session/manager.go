package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

// Manager owns session lifecycle against the durable store. It provides no
// per-session lock: callers process one inbound event per session at a time,
// and interleaved updates resolve last-write-wins.
type Manager struct {
	store    Store
	registry *survey.Registry
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewManager(store Store, registry *survey.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		registry: registry,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return "sess_" + uuid.NewString() },
	}
}

// Registry exposes the questionnaire registry this manager was built with.
func (m *Manager) Registry() *survey.Registry {
	return m.registry
}

// Start creates a session and produces the session-start contract: the new
// id, the generated system prompt, the tool schema set, and the first
// question. The cursor stays at -1; the model's first get_next_question call
// performs the first advance.
func (m *Manager) Start(ctx context.Context, req protocol.SessionStartRequest, clientAddr string) (protocol.SessionStartResponse, error) {
	q, err := m.registry.Get(req.QuestionnaireID)
	if err != nil {
		return protocol.SessionStartResponse{}, err
	}

	first, err := survey.Next(q, -1, nil)
	if err != nil {
		return protocol.SessionStartResponse{}, err
	}

	now := m.now()
	sess := &Session{
		ID:              m.newID(),
		QuestionnaireID: q.ID,
		CurrentIndex:    -1,
		Responses:       make(map[string]Response),
		Voice: VoiceConfig{
			VoiceID:      req.VoiceID,
			SampleRateHz: 24000,
			Channels:     1,
		},
		Status:         StatusActive,
		UserID:         req.UserID,
		ClientAddrHash: HashClientAddr(clientAddr),
		StartedAt:      now,
		LastActivity:   now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return protocol.SessionStartResponse{}, err
	}

	m.logger.Info("session started",
		"session_id", sess.ID,
		"questionnaire_id", q.ID,
		"voice_id", req.VoiceID)

	return protocol.SessionStartResponse{
		SessionID:     sess.ID,
		SystemPrompt:  survey.BuildSystemPrompt(q),
		Tools:         protocol.ToolSchemas(),
		FirstQuestion: first.Question,
	}, nil
}

// Get reads through to the durable store.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Update loads the session, applies the mutation, refreshes last-activity,
// and persists. Concurrent updates to one session resolve last-write-wins.
func (m *Manager) Update(ctx context.Context, id string, apply func(*Session)) (*Session, error) {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Refresh before apply so mutations can read the update time.
	sess.LastActivity = m.now()
	if apply != nil {
		apply(sess)
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes the live record. The audit snapshot, if one was taken, is
// unaffected.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// ActiveIDs enumerates live session ids for draining sweeps.
func (m *Manager) ActiveIDs(ctx context.Context) ([]string, error) {
	return m.store.ActiveIDs(ctx)
}

// End finalizes a session: terminal status, audit snapshot, live record
// deletion. Snapshot write failure is logged and does not block the end; the
// caller still gets a summary.
func (m *Manager) End(ctx context.Context, req protocol.SessionEndRequest, recording *protocol.RecordingLocator) (protocol.SessionEndResponse, error) {
	sess, err := m.store.Get(ctx, req.SessionID)
	if err != nil {
		return protocol.SessionEndResponse{}, err
	}
	if sess.Status.Terminal() {
		return protocol.SessionEndResponse{}, core.Newf(core.ErrSessionInvalid,
			"session %q already ended with status %s", sess.ID, sess.Status)
	}

	now := m.now()
	sess.Status = statusForReason(req.Reason)
	sess.EndedAt = now

	rec := m.buildRecord(sess, recording)
	if err := m.store.SaveSnapshot(ctx, rec); err != nil {
		m.logger.Error("audit snapshot write failed",
			"session_id", sess.ID, "error", err)
	}
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		m.logger.Error("live session delete failed",
			"session_id", sess.ID, "error", err)
	}

	m.logger.Info("session ended",
		"session_id", sess.ID,
		"reason", req.Reason,
		"duration", sess.Duration(now),
		"questions_answered", sess.AnsweredCount())

	return protocol.SessionEndResponse{
		SessionID:         sess.ID,
		DurationSeconds:   sess.Duration(now).Seconds(),
		QuestionsAnswered: sess.AnsweredCount(),
		Recording:         recording,
	}, nil
}

// Snapshot persists an audit record of the session's current state without
// ending it. The shutdown drain uses this for its best-effort final save.
func (m *Manager) Snapshot(ctx context.Context, id string) error {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return m.store.SaveSnapshot(ctx, m.buildRecord(sess, nil))
}

func (m *Manager) buildRecord(sess *Session, recording *protocol.RecordingLocator) *Record {
	asOf := sess.EndedAt
	if asOf.IsZero() {
		asOf = m.now()
	}
	rec := &Record{
		SessionID:       sess.ID,
		QuestionnaireID: sess.QuestionnaireID,
		CurrentIndex:    sess.CurrentIndex,
		StartedAt:       sess.StartedAt,
		EndedAt:         sess.EndedAt,
		DurationSeconds: asOf.Sub(sess.StartedAt).Seconds(),
		Status:          sess.Status,
		VoiceID:         sess.Voice.VoiceID,
		Metadata:        sess.Metadata,
		UserID:          sess.UserID,
		ClientAddrHash:  sess.ClientAddrHash,
		Responses:       sess.Responses,
	}
	if q, err := m.registry.Get(sess.QuestionnaireID); err == nil && len(q.Questions) > 0 {
		rec.CompletionRate = sess.AnsweredCount() * 100 / len(q.Questions)
	}
	if recording != nil {
		rec.RecordingBucket = recording.Bucket
		rec.RecordingKey = recording.Key
	}
	return rec
}

func statusForReason(reason protocol.EndReason) Status {
	switch reason {
	case protocol.EndCompleted:
		return StatusCompleted
	case protocol.EndError:
		return StatusError
	default:
		return StatusTerminated
	}
}

package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/metrics"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
)

// Metadata describes a saved recording artifact.
type Metadata struct {
	Key             string    `json:"key"`
	Bucket          string    `json:"bucket"`
	SampleRate      int       `json:"sample_rate"`
	BitDepth        int       `json:"bit_depth"`
	DurationSeconds float64   `json:"duration_seconds"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// Locator converts the metadata into the wire-level locator form.
func (m *Metadata) Locator() *protocol.RecordingLocator {
	if m == nil {
		return nil
	}
	return &protocol.RecordingLocator{Bucket: m.Bucket, Key: m.Key}
}

type sessionBuffers struct {
	user      bytes.Buffer
	assistant bytes.Buffer
}

// Recorder buffers inbound and outbound audio per session and assembles one
// playable artifact at session end. Buffers exist only while the session is
// active and are consumed exactly once.
type Recorder struct {
	store   ObjectStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	buffers map[string]*sessionBuffers
}

func NewRecorder(store ObjectStore, m *metrics.Metrics, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		buffers: make(map[string]*sessionBuffers),
	}
}

// Init allocates the session's buffers on first audio activity.
// Re-initializing an existing buffer is a no-op.
func (r *Recorder) Init(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.buffers[sessionID]; !ok {
		r.buffers[sessionID] = &sessionBuffers{}
	}
}

// Append adds a PCM chunk to one side of the session's recording. A chunk
// for an unknown session is tolerated silently.
func (r *Recorder) Append(sessionID string, source protocol.AudioSource, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[sessionID]
	if !ok {
		return
	}
	switch source {
	case protocol.AudioSourceAssistant:
		buf.assistant.Write(chunk)
	default:
		buf.user.Write(chunk)
	}
	if r.metrics != nil {
		r.metrics.AudioBytesTotal.WithLabelValues(string(source)).Add(float64(len(chunk)))
	}
}

// AppendBase64 decodes and buffers a base64 payload from the transport
// layer.
func (r *Recorder) AppendBase64(sessionID string, source protocol.AudioSource, b64 string) error {
	chunk, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return core.Wrap(core.ErrAudioProcessing, "decode audio payload", err).WithSession(sessionID)
	}
	r.Append(sessionID, source, chunk)
	return nil
}

// Len returns the buffered byte counts, for tests and diagnostics.
func (r *Recorder) Len(sessionID string) (user, assistant int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if buf, ok := r.buffers[sessionID]; ok {
		return buf.user.Len(), buf.assistant.Len()
	}
	return 0, 0
}

// Finalize assembles the session's buffered audio into a single WAV
// artifact, uploads it, and discards the buffer. The buffer is dropped only
// after a successful save, so a failed upload leaves it in place for a
// retry. A session with no buffered audio still produces a valid,
// zero-length-data container. Returns nil metadata without error when the
// session never had audio buffers or no upload target is configured.
func (r *Recorder) Finalize(ctx context.Context, sessionID, questionnaireID string) (*Metadata, error) {
	r.mu.Lock()
	buf, ok := r.buffers[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if r.store == nil {
		r.Discard(sessionID)
		return nil, nil
	}

	pcm := make([]byte, 0, buf.user.Len()+buf.assistant.Len())
	pcm = append(pcm, buf.user.Bytes()...)
	pcm = append(pcm, buf.assistant.Bytes()...)
	artifact := EncodeWAV(pcm, SampleRate, BitsPerSample, Channels)

	key := fmt.Sprintf("recordings/%s.wav", sessionID)
	objectMeta := map[string]string{
		"session-id":       sessionID,
		"questionnaire-id": questionnaireID,
	}
	if err := r.store.Put(ctx, key, artifact, "audio/wav", objectMeta); err != nil {
		return nil, core.Wrap(core.ErrAudioProcessing, "upload recording", err).WithSession(sessionID)
	}
	r.Discard(sessionID)

	if r.metrics != nil {
		r.metrics.RecordingsSaved.Inc()
	}
	meta := &Metadata{
		Key:             key,
		Bucket:          r.store.Bucket(),
		SampleRate:      SampleRate,
		BitDepth:        BitsPerSample,
		DurationSeconds: DurationSeconds(len(pcm)),
		UploadedAt:      r.now(),
	}
	r.logger.Info("recording saved",
		"session_id", sessionID,
		"key", key,
		"duration_seconds", meta.DurationSeconds)
	return meta, nil
}

// Discard drops the session's buffers without saving, for sessions
// abandoned before any audio mattered.
func (r *Recorder) Discard(sessionID string) {
	r.mu.Lock()
	delete(r.buffers, sessionID)
	r.mu.Unlock()
}

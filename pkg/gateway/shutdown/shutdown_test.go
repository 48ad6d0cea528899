package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/lifecycle"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/protocol"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

type fakeTransport struct {
	closes int
	err    error
}

func (f *fakeTransport) Close() error {
	f.closes++
	return f.err
}

func testManager(t *testing.T) (*session.Manager, *session.MemoryStore) {
	t.Helper()
	registry := survey.NewRegistry()
	_, err := registry.LoadBytes([]byte(`{
		"id": "qn_shutdown",
		"questions": [{"id": "q1", "text": "Hi", "type": "open_ended"}]
	}`))
	if err != nil {
		t.Fatalf("load questionnaire: %v", err)
	}
	store := session.NewMemoryStore()
	return session.NewManager(store, registry, nil), store
}

func TestRun_NoSessionsFinishesFast(t *testing.T) {
	lc := &lifecycle.Lifecycle{}
	tracker := session.NewTracker()
	manager, _ := testManager(t)
	transport := &fakeTransport{}

	c := New(lc, tracker, manager, nil, nil, 5*time.Second)
	start := time.Now()
	if err := c.Run(context.Background(), transport); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Run took %v with zero sessions, want immediate", elapsed)
	}
	if transport.closes != 1 {
		t.Errorf("transport closes = %d, want exactly 1", transport.closes)
	}
	if !lc.IsDraining() {
		t.Errorf("IsDraining = false, want true after Run")
	}
}

func TestRun_DrainsActiveSessionThenCloses(t *testing.T) {
	lc := &lifecycle.Lifecycle{}
	tracker := session.NewTracker()
	manager, _ := testManager(t)
	transport := &fakeTransport{}

	modelClosed := make(chan struct{}, 1)
	var unregister func()
	unregister = tracker.Register("sess_1", session.Handle{
		CloseModel: func() error {
			modelClosed <- struct{}{}
			return nil
		},
	})
	go func() {
		<-modelClosed
		unregister()
	}()

	c := New(lc, tracker, manager, nil, nil, 5*time.Second)
	if err := c.Run(context.Background(), transport); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tracker.Count() != 0 {
		t.Errorf("Count = %d, want 0 after drain", tracker.Count())
	}
	if transport.closes != 1 {
		t.Errorf("transport closes = %d, want 1", transport.closes)
	}
}

func TestRun_ForceDisconnectsAfterTimeout(t *testing.T) {
	lc := &lifecycle.Lifecycle{}
	tracker := session.NewTracker()
	manager, _ := testManager(t)
	transport := &fakeTransport{}

	forced := 0
	tracker.Register("sess_stuck", session.Handle{
		ForceDisconnect: func() { forced++ },
	})

	c := New(lc, tracker, manager, nil, nil, 20*time.Millisecond)
	if err := c.Run(context.Background(), transport); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if forced != 1 {
		t.Errorf("forced disconnects = %d, want 1", forced)
	}
}

func TestRun_SnapshotsActiveSessions(t *testing.T) {
	lc := &lifecycle.Lifecycle{}
	tracker := session.NewTracker()
	manager, store := testManager(t)
	transport := &fakeTransport{}

	resp, err := manager.Start(context.Background(), protocol.SessionStartRequest{QuestionnaireID: "qn_shutdown"}, "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c := New(lc, tracker, manager, nil, nil, time.Second)
	if err := c.Run(context.Background(), transport); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec, ok := store.Snapshot(resp.SessionID)
	if !ok {
		t.Fatalf("no audit snapshot for %s after shutdown", resp.SessionID)
	}
	if rec.Status != session.StatusActive {
		t.Errorf("snapshot Status = %s, want %s for an interrupted session", rec.Status, session.StatusActive)
	}
}

func TestRun_TransportCloseFailurePropagates(t *testing.T) {
	lc := &lifecycle.Lifecycle{}
	tracker := session.NewTracker()
	manager, _ := testManager(t)
	closeErr := errors.New("listener stuck")
	transport := &fakeTransport{err: closeErr}

	c := New(lc, tracker, manager, nil, nil, time.Second)
	if err := c.Run(context.Background(), transport); !errors.Is(err, closeErr) {
		t.Fatalf("Run() error = %v, want %v", err, closeErr)
	}
}

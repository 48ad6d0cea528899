package session

import (
	"context"
	"sync"
)

// Handle exposes the per-session actions the shutdown drain needs: a clean
// close of the external model sub-connection and a forced disconnect of the
// attached transport connection.
type Handle struct {
	CloseModel      func() error
	ForceDisconnect func()
}

// Tracker is the in-process registry of live sessions. Registration pairs
// with the returned unregister func; double unregister is a no-op.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*trackedSession
	wg       sync.WaitGroup
}

type trackedSession struct {
	handle Handle
	once   sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*trackedSession)}
}

func (t *Tracker) Register(sessionID string, h Handle) (unregister func()) {
	if t == nil {
		return func() {}
	}

	entry := &trackedSession{handle: h}

	t.mu.Lock()
	if t.sessions == nil {
		t.sessions = make(map[string]*trackedSession)
	}
	old := t.sessions[sessionID]
	t.sessions[sessionID] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(sessionID, old)
	}

	return func() { t.unregister(sessionID, entry) }
}

func (t *Tracker) unregister(sessionID string, entry *trackedSession) {
	if t == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		t.mu.Lock()
		if t.sessions != nil && t.sessions[sessionID] == entry {
			delete(t.sessions, sessionID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// CloseModelConns issues a clean close to every session's external model
// sub-connection. Errors are ignored; the close is best effort.
func (t *Tracker) CloseModelConns() (closed int) {
	if t == nil {
		return 0
	}

	var closes []func() error
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.CloseModel == nil {
			continue
		}
		closes = append(closes, entry.handle.CloseModel)
	}
	t.mu.Unlock()

	for _, closeFn := range closes {
		_ = closeFn()
		closed++
	}
	return closed
}

// ForceDisconnectAll tears down the transport connections still attached to
// sessions.
func (t *Tracker) ForceDisconnectAll() (disconnected int) {
	if t == nil {
		return 0
	}

	var disconnects []func()
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.ForceDisconnect == nil {
			continue
		}
		disconnects = append(disconnects, entry.handle.ForceDisconnect)
	}
	t.mu.Unlock()

	for _, disconnect := range disconnects {
		disconnect()
		disconnected++
	}
	return disconnected
}

// Wait blocks until every registered session unregisters or the context
// expires. It reports whether the drain finished in time.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

package session

import (
	"context"
	"testing"
	"time"
)

func TestTracker_RegisterUnregister(t *testing.T) {
	tr := NewTracker()
	if tr.Count() != 0 {
		t.Fatalf("Count = %d, want 0", tr.Count())
	}

	un1 := tr.Register("sess_1", Handle{})
	un2 := tr.Register("sess_2", Handle{})
	if tr.Count() != 2 {
		t.Fatalf("Count = %d, want 2", tr.Count())
	}

	un1()
	un1() // double unregister is a no-op
	if tr.Count() != 1 {
		t.Fatalf("Count = %d, want 1 after unregister", tr.Count())
	}
	un2()
	if tr.Count() != 0 {
		t.Fatalf("Count = %d, want 0", tr.Count())
	}
}

func TestTracker_CloseModelConns(t *testing.T) {
	tr := NewTracker()
	closed := 0
	tr.Register("sess_1", Handle{CloseModel: func() error { closed++; return nil }})
	tr.Register("sess_2", Handle{CloseModel: func() error { closed++; return nil }})
	tr.Register("sess_3", Handle{}) // no model hook

	if got := tr.CloseModelConns(); got != 2 {
		t.Errorf("CloseModelConns() = %d, want 2", got)
	}
	if closed != 2 {
		t.Errorf("close hooks ran %d times, want 2", closed)
	}
}

func TestTracker_ForceDisconnectAll(t *testing.T) {
	tr := NewTracker()
	dropped := 0
	tr.Register("sess_1", Handle{ForceDisconnect: func() { dropped++ }})
	tr.Register("sess_2", Handle{ForceDisconnect: func() { dropped++ }})

	if got := tr.ForceDisconnectAll(); got != 2 {
		t.Errorf("ForceDisconnectAll() = %d, want 2", got)
	}
	if dropped != 2 {
		t.Errorf("disconnect hooks ran %d times, want 2", dropped)
	}
}

func TestTracker_WaitDrained(t *testing.T) {
	tr := NewTracker()
	un := tr.Register("sess_1", Handle{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		un()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !tr.Wait(ctx) {
		t.Fatalf("Wait() = false, want true once the session unregisters")
	}
}

func TestTracker_WaitTimesOut(t *testing.T) {
	tr := NewTracker()
	tr.Register("sess_stuck", Handle{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if tr.Wait(ctx) {
		t.Fatalf("Wait() = true, want false with a session still registered")
	}
}

func TestTracker_NilSafety(t *testing.T) {
	var tr *Tracker
	un := tr.Register("sess_1", Handle{})
	un()
	if tr.Count() != 0 {
		t.Errorf("nil tracker Count = %d, want 0", tr.Count())
	}
	tr.CloseModelConns()
	tr.ForceDisconnectAll()
}

package chat

import (
	"sync"
	"testing"
)

type recordingHandler struct {
	typ   string
	mu    sync.Mutex
	calls int
}

func (h *recordingHandler) Type() string { return h.typ }

func (h *recordingHandler) Handle(*Context, *Envelope, *Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestDispatchGatesPreAuthEvents(t *testing.T) {
	d := NewDispatcher()
	ping := &recordingHandler{typ: EventPing}
	auth := &recordingHandler{typ: EventAuth}
	msg := &recordingHandler{typ: EventMessage}
	d.Register(ping)
	d.Register(auth)
	d.Register(msg)

	if d.GetHandler(EventPing) != ping || d.GetHandler(EventMessage) != msg {
		t.Fatal("registered handlers must be retrievable by tag")
	}
	if d.GetHandler("no_such_event") != nil {
		t.Fatal("unknown tag must yield no handler")
	}

	conn := NewConn("c1", &stubWS{}, 8)

	// Unauthenticated: message silently dropped, ping and auth pass.
	if err := d.Dispatch(nil, &Envelope{Type: EventMessage}, conn); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if msg.count() != 0 {
		t.Fatal("pre-auth message must not reach its handler")
	}
	_ = d.Dispatch(nil, &Envelope{Type: EventPing}, conn)
	_ = d.Dispatch(nil, &Envelope{Type: EventAuth}, conn)
	if ping.count() != 1 || auth.count() != 1 {
		t.Fatalf("ping=%d auth=%d, want 1/1", ping.count(), auth.count())
	}

	// Authenticated: message flows.
	conn.BindIdentity("alice")
	_ = d.Dispatch(nil, &Envelope{Type: EventMessage}, conn)
	if msg.count() != 1 {
		t.Fatal("post-auth message must reach its handler")
	}
}

func TestDispatchIgnoresUnknownTag(t *testing.T) {
	d := NewDispatcher()
	conn := NewConn("c1", &stubWS{}, 8)
	conn.BindIdentity("alice")

	if err := d.Dispatch(nil, &Envelope{Type: "no_such_event"}, conn); err != nil {
		t.Fatalf("unknown tags must be ignored without error, got %v", err)
	}
}

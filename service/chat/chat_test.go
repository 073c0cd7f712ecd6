package chat

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"
)

// stubWS is an in-memory Transport standing in for a peer socket.
type stubWS struct {
	mu         sync.Mutex
	frames     [][]byte
	closed     bool
	failWrites bool
}

type stubAddr struct{}

func (stubAddr) Network() string { return "stub" }
func (stubAddr) String() string  { return "stub" }

func (s *stubWS) WriteMessage(_ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return net.ErrClosed
	}
	if s.failWrites {
		return net.ErrClosed
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *stubWS) SetWriteDeadline(time.Time) error { return nil }

func (s *stubWS) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubWS) RemoteAddr() net.Addr { return stubAddr{} }

func (s *stubWS) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stubWS) snapshot() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

// eventTypes decodes the envelope type of every frame received so far.
func (s *stubWS) eventTypes() []string {
	var types []string
	for _, raw := range s.snapshot() {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			types = append(types, env.Type)
		}
	}
	return types
}

// waitFrames polls until the stub saw at least n frames.
func waitFrames(t *testing.T, s *stubWS, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frames := s.snapshot(); len(frames) >= n {
			return frames
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, got %d", n, len(s.snapshot()))
	return nil
}

func waitClosed(t *testing.T, s *stubWS) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.isClosed() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for transport close")
}

// fakePresence records availability writes.
type fakePresence struct {
	mu    sync.Mutex
	calls []string // "user:status"
	err   error
}

func (f *fakePresence) UpdateUserAvailability(_ context.Context, userID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+":"+status)
	return f.err
}

func (f *fakePresence) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

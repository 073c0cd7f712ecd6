package chat

import (
	"sync"
	"testing"
)

func TestCloseConnTeardownRunsOnce(t *testing.T) {
	store := &fakePresence{}
	s := NewServer("gw-test", nil, store, 8)

	wsB := &stubWS{}
	s.Registry().Bind("bob", NewConn("b", wsB, 8))

	c := NewConn("a", &stubWS{}, 8)
	s.Registry().Bind("alice", c)
	c.BindIdentity("alice")

	// Two concurrent close triggers (eviction vs the peer's own
	// network close) must collapse into one teardown.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.CloseConn(c)
		}()
	}
	wg.Wait()

	calls := store.snapshot()
	if len(calls) != 1 || calls[0] != "alice:offline" {
		t.Fatalf("offline persisted %d times: %v", len(calls), calls)
	}
	frames := waitFrames(t, wsB, 1)
	if len(frames) != 1 {
		t.Fatalf("bob saw %d presence frames, want 1", len(frames))
	}
	if s.Registry().Lookup("alice") != nil {
		t.Fatal("binding must be removed")
	}
}

func TestCloseConnUnauthenticatedTouchesNothing(t *testing.T) {
	store := &fakePresence{}
	s := NewServer("gw-test", nil, store, 8)

	c := NewConn("a", &stubWS{}, 8)
	s.CloseConn(c)

	if len(store.snapshot()) != 0 {
		t.Fatal("unauthenticated close must not touch presence")
	}
}

func TestCloseConnStaleDoesNotDropNewerBinding(t *testing.T) {
	store := &fakePresence{}
	s := NewServer("gw-test", nil, store, 8)

	x := NewConn("x", &stubWS{}, 8)
	s.Registry().Bind("alice", x)
	x.BindIdentity("alice")

	// alice logs in again elsewhere; x is evicted.
	y := NewConn("y", &stubWS{}, 8)
	s.Registry().Bind("alice", y)
	y.BindIdentity("alice")

	// x's slow close handler fires afterwards.
	s.CloseConn(x)

	if s.Registry().Lookup("alice") != y {
		t.Fatal("stale teardown removed the newer binding")
	}
}

package chat

import (
	"sync"

	"github.com/pulsechat/gateway/logger"
)

// Registry owns the user -> live connection mapping and is the only
// mutable state shared across connection goroutines. Invariant: at most
// one bound connection per user at any instant.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Conn)}
}

// Bind installs conn as the user's connection. An existing binding is
// evicted: the old transport is force-closed (idempotently) and its own
// close path runs teardown later. Never fails on a dead old conn.
func (r *Registry) Bind(userID string, c *Conn) {
	r.mu.Lock()
	old := r.byUser[userID]
	r.byUser[userID] = c
	r.mu.Unlock()

	if old != nil && old != c {
		logger.Infof("[registry] evict user=%s old=%s new=%s", userID, old.ID, c.ID)
		old.Close()
	}
}

// Unbind removes the entry only when conn is still the current binding.
// A stale request from an evicted connection must not remove the newer
// binding installed after it.
func (r *Registry) Unbind(userID string, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[userID]; ok && cur == c {
		delete(r.byUser, userID)
		return true
	}
	return false
}

// Lookup returns the user's live connection, nil when absent.
func (r *Registry) Lookup(userID string) *Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[userID]
}

// Len reports the number of bound connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Broadcast delivers payload to every bound connection except
// excludeUser. Sends happen on a snapshot taken under the read lock, so
// a concurrent Bind cannot hand us a connection mid-eviction. Each
// delivery is independent: a broken transport is logged and skipped,
// never surfaced to the caller, and every recipient is attempted before
// returning.
func (r *Registry) Broadcast(payload []byte, excludeUser string) {
	r.mu.RLock()
	targets := make([]*Conn, 0, len(r.byUser))
	for userID, c := range r.byUser {
		if userID == excludeUser {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(payload); err != nil {
			logger.Infof("[registry] broadcast skip conn=%s err=%v", c.ID, err)
		}
	}
}

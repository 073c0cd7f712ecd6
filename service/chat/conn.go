package chat

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/tools/safe"
)

const writeWait = 5 * time.Second

// Transport is the subset of *websocket.Conn the gateway writes to.
// Narrowed to an interface so tests can run against a fake peer.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
	RemoteAddr() net.Addr
}

// Conn is one live transport session. Created unauthenticated on
// accept, bound to a user exactly once per auth (re-auth rebinds),
// destroyed on transport close. A single writer goroutine drains the
// send queue; everything else only enqueues.
type Conn struct {
	ID string

	ws   Transport
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	tornDown  int32 // one-shot teardown flag, CAS-guarded

	mu         sync.RWMutex
	userID     string
	authorized bool
}

func NewConn(id string, ws Transport, sendQueueSize int) *Conn {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	c := &Conn{
		ID:   id,
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	safe.Go(c.writeLoop)
	return c
}

// BindIdentity marks the connection authenticated as userID.
// Called again on re-auth; the newest identity wins.
func (c *Conn) BindIdentity(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.authorized = true
	c.mu.Unlock()
}

// Identity returns the bound user id, ok=false while unauthenticated.
func (c *Conn) Identity() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.authorized
}

func (c *Conn) Authorized() bool {
	_, ok := c.Identity()
	return ok
}

// Send enqueues a frame for the writer goroutine. Fails when the
// connection is closed or the peer is too slow to drain its queue.
func (c *Conn) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	select {
	case <-c.done:
		return errors.Errorf("conn %s closed", c.ID)
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return errors.Errorf("conn %s closed", c.ID)
	default:
		return errors.Errorf("conn %s send queue full", c.ID)
	}
}

// Close shuts the transport. Idempotent: closing an already-closed
// connection is a no-op.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.ws.Close(); err != nil {
			logger.Debug("conn close: " + err.Error())
		}
	})
}

// beginTeardown claims the once-only right to run lifecycle teardown
// (offline presence, registry removal). Concurrent triggers, such as an
// evict racing the peer's own network close, collapse to a single winner.
func (c *Conn) beginTeardown() bool {
	return atomic.CompareAndSwapInt32(&c.tornDown, 0, 1)
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.done:
			// Drain is pointless after close; the peer is gone.
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write err conn=%s err=%v", c.ID, err)
				c.Close()
				return
			}
		}
	}
}

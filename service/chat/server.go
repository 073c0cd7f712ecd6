package chat

import (
	"context"
	"time"

	"github.com/pulsechat/gateway/logger"
)

const teardownTimeout = 2 * time.Second

// Server aggregates the gateway core: registry, dispatcher, stores,
// broadcaster and presence. Everything is injected explicitly; the
// registry in particular is never reached through package globals.
type Server struct {
	gatewayID string

	reg      *Registry
	disp     *Dispatcher
	store    ConversationStore
	presence *PresenceManager
	caster   *Broadcaster

	sendQueueSize int
}

func NewServer(gatewayID string, store ConversationStore, pstore PresenceStore, sendQueueSize int) *Server {
	reg := NewRegistry()
	return &Server{
		gatewayID:     gatewayID,
		reg:           reg,
		disp:          NewDispatcher(),
		store:         store,
		presence:      NewPresenceManager(pstore, reg),
		caster:        NewBroadcaster(reg),
		sendQueueSize: sendQueueSize,
	}
}

func (s *Server) GatewayID() string          { return s.gatewayID }
func (s *Server) Registry() *Registry        { return s.reg }
func (s *Server) Disp() *Dispatcher          { return s.disp }
func (s *Server) Store() ConversationStore   { return s.store }
func (s *Server) Presence() *PresenceManager { return s.presence }
func (s *Server) Broadcaster() *Broadcaster  { return s.caster }

// CloseConn runs the terminal transition for a connection. Safe to
// call from multiple paths; teardown executes at most once per conn:
// an authenticated connection persists offline, broadcasts presence,
// then releases its registry entry (guarded, so a stale conn can never
// drop a newer binding). An unauthenticated close touches nothing.
func (s *Server) CloseConn(c *Conn) {
	c.Close()
	if !c.beginTeardown() {
		return
	}
	userID, ok := c.Identity()
	if !ok {
		logger.Infof("[WS] closed unauth conn=%s", c.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	s.presence.SetOffline(ctx, userID)
	removed := s.reg.Unbind(userID, c)
	logger.Infof("[WS] closed conn=%s user=%s unbound=%v", c.ID, userID, removed)
}

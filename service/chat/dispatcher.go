package chat

import (
	"github.com/pulsechat/gateway/logger"
)

type Handler interface {
	Type() string
	Handle(ctx *Context, env *Envelope, conn *Conn) error
}

type Context struct {
	S *Server
}

// Dispatcher routes a decoded inbound envelope to the handler
// registered for its tag. Before a connection authenticates, only auth
// and ping move forward; everything else is dropped on the floor. The
// peer gets no error event, that silence is the contract.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) GetHandler(eventType string) Handler {
	return d.handlers[eventType]
}

func (d *Dispatcher) Dispatch(ctx *Context, env *Envelope, conn *Conn) error {
	if !conn.Authorized() && env.Type != EventAuth && env.Type != EventPing {
		logger.Infof("[dispatch] drop pre-auth event type=%s conn=%s", env.Type, conn.ID)
		return nil
	}
	h, ok := d.handlers[env.Type]
	if !ok {
		// Unrecognized tags are ignored without error.
		logger.Infof("[dispatch] no handler for type=%s", env.Type)
		return nil
	}
	return h.Handle(ctx, env, conn)
}

package handlers

import (
	"context"
	"time"

	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/service/chat"
)

const storeTimeout = 2 * time.Second

// AuthHandler runs the handshake transition. Failure is silent to the
// peer: an unknown user id is logged and the connection simply stays
// unauthenticated. A repeated auth on an authenticated connection is a
// normal re-bind; that is how a client re-authenticates a socket.
type AuthHandler struct{}

func NewAuthHandler() chat.Handler { return &AuthHandler{} }

func (h *AuthHandler) Type() string { return chat.EventAuth }

func (h *AuthHandler) Handle(ctx *chat.Context, env *chat.Envelope, conn *chat.Conn) error {
	ap, err := chat.DecodePayload[chat.AuthPayload](env)
	if err != nil {
		logger.Infof("[auth] bad payload conn=%s err=%v", conn.ID, err)
		return nil
	}
	if ap.UserID == "" {
		logger.Infof("[auth] empty userId conn=%s", conn.ID)
		return nil
	}

	cctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := ctx.S.Store().GetUser(cctx, ap.UserID); err != nil {
		logger.Infof("[auth] unknown user=%s conn=%s err=%v", ap.UserID, conn.ID, err)
		return nil
	}

	// Re-auth under a different identity releases the old binding
	// first; the eviction of any other socket bound to the new
	// identity happens inside Bind.
	if prev, ok := conn.Identity(); ok && prev != ap.UserID {
		ctx.S.Registry().Unbind(prev, conn)
	}

	ctx.S.Registry().Bind(ap.UserID, conn)
	conn.BindIdentity(ap.UserID)

	if err := conn.Send(chat.BuildAuthSuccess(ap.UserID)); err != nil {
		logger.Infof("[auth] ack send user=%s conn=%s err=%v", ap.UserID, conn.ID, err)
	}

	ctx.S.Presence().SetOnline(cctx, ap.UserID)
	logger.Infof("[auth] bound user=%s conn=%s", ap.UserID, conn.ID)
	return nil
}

package handlers

import (
	"github.com/pulsechat/gateway/service/chat"
)

// PingHandler replies pong immediately. Works in either handshake
// state; the heartbeat is client-driven and needs no identity.
type PingHandler struct{}

func NewPingHandler() chat.Handler { return &PingHandler{} }

func (h *PingHandler) Type() string { return chat.EventPing }

func (h *PingHandler) Handle(_ *chat.Context, _ *chat.Envelope, conn *chat.Conn) error {
	return conn.Send(chat.BuildPong())
}

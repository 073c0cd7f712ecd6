package handlers

import (
	"context"

	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/service/chat"
)

// StatusHandler persists an explicit availability change and
// broadcasts it to everyone else.
type StatusHandler struct{}

func NewStatusHandler() chat.Handler { return &StatusHandler{} }

func (h *StatusHandler) Type() string { return chat.EventStatusChange }

func (h *StatusHandler) Handle(ctx *chat.Context, env *chat.Envelope, conn *chat.Conn) error {
	userID, ok := conn.Identity()
	if !ok {
		return nil
	}
	sp, err := chat.DecodePayload[chat.StatusChangePayload](env)
	if err != nil {
		logger.Infof("[status] bad payload conn=%s err=%v", conn.ID, err)
		return nil
	}
	if sp.Status == "" {
		return nil
	}

	cctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	ctx.S.Presence().SetStatus(cctx, userID, sp.Status)
	return nil
}

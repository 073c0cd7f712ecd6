package handlers

import (
	"context"

	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/service/chat"
)

// TypingHandler relays ephemeral typing state to the other members of
// a conversation. Nothing is persisted, and the can_message gate does
// not apply: typing signals are not governed by messaging permission.
type TypingHandler struct{}

func NewTypingHandler() chat.Handler { return &TypingHandler{} }

func (h *TypingHandler) Type() string { return chat.EventTyping }

func (h *TypingHandler) Handle(ctx *chat.Context, env *chat.Envelope, conn *chat.Conn) error {
	userID, ok := conn.Identity()
	if !ok {
		return nil
	}
	tp, err := chat.DecodePayload[chat.TypingPayload](env)
	if err != nil {
		logger.Infof("[typing] bad payload conn=%s err=%v", conn.ID, err)
		return nil
	}
	if tp.ConversationID == "" {
		return nil
	}

	cctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := ctx.S.Store().GetMembership(cctx, tp.ConversationID, userID); err != nil {
		logger.Infof("[typing] drop non-member user=%s conv=%s", userID, tp.ConversationID)
		return nil
	}
	members, err := ctx.S.Store().GetConversationMembers(cctx, tp.ConversationID)
	if err != nil {
		logger.Infof("[typing] members conv=%s err=%v", tp.ConversationID, err)
		return nil
	}

	payload := chat.BuildTyping(tp.ConversationID, userID, tp.IsTyping)
	for _, m := range members {
		if m.UserID == userID {
			continue
		}
		if c := ctx.S.Registry().Lookup(m.UserID); c != nil {
			if err := c.Send(payload); err != nil {
				logger.Infof("[typing] deliver user=%s err=%v", m.UserID, err)
			}
		}
	}
	return nil
}

package handlers

import (
	"context"

	"github.com/pulsechat/gateway/logger"
	chatservice "github.com/pulsechat/gateway/module/chat/service"
	"github.com/pulsechat/gateway/service/chat"
)

// MessageHandler feeds the live `message` event into the same service
// the request path uses, so both entries share one fan-out. Failed
// preconditions (unknown conversation, missing membership, muted
// member) are logged and dropped; the live path sends no error events.
type MessageHandler struct {
	svc *chatservice.MessageService
}

func NewMessageHandler(svc *chatservice.MessageService) chat.Handler {
	return &MessageHandler{svc: svc}
}

func (h *MessageHandler) Type() string { return chat.EventMessage }

func (h *MessageHandler) Handle(_ *chat.Context, env *chat.Envelope, conn *chat.Conn) error {
	userID, ok := conn.Identity()
	if !ok {
		return nil
	}
	mp, err := chat.DecodePayload[chat.MessagePayload](env)
	if err != nil {
		logger.Infof("[message] bad payload conn=%s err=%v", conn.ID, err)
		return nil
	}

	cctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := h.svc.Create(cctx, userID, mp.ConversationID, mp.Content, mp.Attachments); err != nil {
		logger.Infof("[message] drop user=%s conv=%s err=%v", userID, mp.ConversationID, err)
	}
	return nil
}

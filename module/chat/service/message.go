package service

import (
	"context"

	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/module/chat/model"
	"github.com/pulsechat/gateway/service/chat"
	"github.com/pulsechat/gateway/tools/errs"
)

// MessageService is the single write path for messages, shared by the
// request/response API and the live `message` event so both produce
// identical downstream fan-out. Order is fixed: permission checks,
// then durable persistence, then delivery. No event is ever broadcast
// for a write that did not durably succeed.
type MessageService struct {
	store  chat.ConversationStore
	caster *chat.Broadcaster
}

func NewMessageService(store chat.ConversationStore, caster *chat.Broadcaster) *MessageService {
	return &MessageService{store: store, caster: caster}
}

// Create persists a message and fans it out to every live member,
// sender included.
func (s *MessageService) Create(ctx context.Context, senderID, conversationID, content string, attachments []string) (*model.Message, error) {
	if conversationID == "" || content == "" {
		return nil, errs.ErrValidation.WithDetail("conversationId and content are required")
	}
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	mem, err := s.store.GetMembership(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !mem.CanMessage {
		return nil, errs.ErrPermissionDenied.WithDetail("messaging disabled in " + conversationID)
	}

	msg, err := s.store.CreateMessage(ctx, conversationID, senderID, content, attachments)
	if err != nil {
		return nil, err
	}
	s.fanout(ctx, conversationID, func(members []*model.Membership) {
		s.caster.DeliverNewMessage(msg, members)
	})
	return msg, nil
}

// Edit updates a message's content. Sender-only, and only while the
// message is not deleted; a deleted message fails without mutation and
// without any broadcast.
func (s *MessageService) Edit(ctx context.Context, actorID, msgID, content string) (*model.Message, error) {
	if content == "" {
		return nil, errs.ErrValidation.WithDetail("content is required")
	}
	msg, err := s.store.GetMessage(ctx, msgID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, errs.ErrPermissionDenied.WithDetail("not the sender of " + msgID)
	}
	if msg.IsDeleted {
		return nil, errs.ErrPermissionDenied.WithDetail("message " + msgID + " is deleted")
	}

	updated, err := s.store.EditMessage(ctx, msgID, content)
	if err != nil {
		return nil, err
	}
	s.fanout(ctx, updated.ConversationID, func(members []*model.Membership) {
		s.caster.DeliverMessageEdited(updated, members, actorID)
	})
	return updated, nil
}

// Delete soft-deletes a message (sender-only). Deleting an already
// deleted message is a no-op and broadcasts nothing.
func (s *MessageService) Delete(ctx context.Context, actorID, msgID string) error {
	msg, err := s.store.GetMessage(ctx, msgID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return errs.ErrPermissionDenied.WithDetail("not the sender of " + msgID)
	}
	if msg.IsDeleted {
		return nil
	}

	if _, err := s.store.DeleteMessage(ctx, msgID); err != nil {
		return err
	}
	s.fanout(ctx, msg.ConversationID, func(members []*model.Membership) {
		s.caster.DeliverMessageDeleted(msgID, msg.ConversationID, members, actorID)
	})
	return nil
}

// fanout resolves current members and hands them to deliver. The write
// already succeeded, so a failed member lookup only costs delivery.
func (s *MessageService) fanout(ctx context.Context, conversationID string, deliver func([]*model.Membership)) {
	members, err := s.store.GetConversationMembers(ctx, conversationID)
	if err != nil {
		logger.Errorf("[message] members conv=%s err=%v", conversationID, err)
		return
	}
	deliver(members)
}

package chat

import (
	"github.com/pulsechat/gateway/logger"
	"github.com/pulsechat/gateway/module/chat/model"
)

// Broadcaster fans a persisted message event out to the live
// connections of a conversation's members. Both the request/response
// message path and the live `message` event path go through here, so
// fan-out behavior is identical regardless of entry path.
//
// Caller contract: persistence completes before any Deliver* call, so
// delivered events always carry final, durable state.
type Broadcaster struct {
	reg *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// DeliverNewMessage sends new_message to every live member, the author
// included: the author's registry entry is the same socket that made
// the request, and the echo keeps clients consistent.
func (b *Broadcaster) DeliverNewMessage(msg *model.Message, members []*model.Membership) {
	b.deliver(BuildNewMessage(msg), members, "")
}

// DeliverMessageEdited sends message_edited to every live member except
// the acting user, who already holds the authoritative result.
func (b *Broadcaster) DeliverMessageEdited(msg *model.Message, members []*model.Membership, actorID string) {
	b.deliver(BuildMessageEdited(msg), members, actorID)
}

// DeliverMessageDeleted sends message_deleted, excluding the actor.
func (b *Broadcaster) DeliverMessageDeleted(msgID, conversationID string, members []*model.Membership, actorID string) {
	b.deliver(BuildMessageDeleted(msgID, conversationID), members, actorID)
}

func (b *Broadcaster) deliver(payload []byte, members []*model.Membership, excludeUser string) {
	for _, m := range members {
		if excludeUser != "" && m.UserID == excludeUser {
			continue
		}
		c := b.reg.Lookup(m.UserID)
		if c == nil {
			// Not live: best-effort fanout, no mailbox, no retry.
			continue
		}
		if err := c.Send(payload); err != nil {
			logger.Infof("[broadcast] deliver user=%s conn=%s err=%v", m.UserID, c.ID, err)
		}
	}
}

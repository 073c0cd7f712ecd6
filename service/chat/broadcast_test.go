package chat

import (
	"testing"

	"github.com/pulsechat/gateway/module/chat/model"
)

func members(ids ...string) []*model.Membership {
	out := make([]*model.Membership, 0, len(ids))
	for _, id := range ids {
		out = append(out, &model.Membership{ConversationID: "c1", UserID: id, CanMessage: true})
	}
	return out
}

func TestDeliverNewMessageIncludesSenderSkipsOffline(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	wsA, wsB := &stubWS{}, &stubWS{}
	reg.Bind("alice", NewConn("a", wsA, 8))
	reg.Bind("bob", NewConn("b", wsB, 8))
	// carol is a member but not live

	msg := &model.Message{MsgID: "m1", ConversationID: "c1", SenderID: "alice", Content: "hi"}
	b.DeliverNewMessage(msg, members("alice", "bob", "carol"))

	waitFrames(t, wsA, 1)
	waitFrames(t, wsB, 1)
	if wsA.eventTypes()[0] != EventNewMessage {
		t.Fatalf("alice got %v", wsA.eventTypes())
	}
}

func TestDeliverEditedExcludesActor(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	wsA, wsB := &stubWS{}, &stubWS{}
	reg.Bind("alice", NewConn("a", wsA, 8))
	reg.Bind("bob", NewConn("b", wsB, 8))

	msg := &model.Message{MsgID: "m1", ConversationID: "c1", SenderID: "alice", Content: "hi2", EditedAt: 1}
	b.DeliverMessageEdited(msg, members("alice", "bob"), "alice")

	waitFrames(t, wsB, 1)
	if wsB.eventTypes()[0] != EventMessageEdited {
		t.Fatalf("bob got %v", wsB.eventTypes())
	}
	if len(wsA.snapshot()) != 0 {
		t.Fatal("acting user must not receive the edit echo")
	}
}

func TestDeliverDeletedExcludesActor(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	wsB := &stubWS{}
	reg.Bind("bob", NewConn("b", wsB, 8))

	b.DeliverMessageDeleted("m1", "c1", members("alice", "bob"), "alice")

	waitFrames(t, wsB, 1)
	if wsB.eventTypes()[0] != EventMessageDeleted {
		t.Fatalf("bob got %v", wsB.eventTypes())
	}
}

func TestDeliverIsolatesDeadRecipients(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	wsB := &stubWS{}
	dead := NewConn("a", &stubWS{}, 8)
	reg.Bind("alice", dead)
	reg.Bind("bob", NewConn("b", wsB, 8))
	dead.Close()

	msg := &model.Message{MsgID: "m1", ConversationID: "c1", SenderID: "carol", Content: "hi"}
	b.DeliverNewMessage(msg, members("alice", "bob"))

	// alice's failure must not keep bob from being attempted.
	waitFrames(t, wsB, 1)
}

package chat

import (
	"context"

	"github.com/pulsechat/gateway/module/chat/model"
)

// ConversationStore is the durable store consumed by the gateway core.
// Implementations provide their own consistency; no transaction spans a
// registry mutation and a store write.
type ConversationStore interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	GetConversationMembers(ctx context.Context, conversationID string) ([]*model.Membership, error)
	GetMembership(ctx context.Context, conversationID, userID string) (*model.Membership, error)
	CreateMessage(ctx context.Context, conversationID, senderID, content string, attachments []string) (*model.Message, error)
	GetMessage(ctx context.Context, msgID string) (*model.Message, error)
	EditMessage(ctx context.Context, msgID, content string) (*model.Message, error)
	DeleteMessage(ctx context.Context, msgID string) (*model.Message, error)
	CreateDirectConversation(ctx context.Context, a, b string) (*model.Conversation, error)
	CreateGroupConversation(ctx context.Context, name, creatorID string, memberIDs []string) (*model.Conversation, error)
}

// PresenceStore persists per-user availability. Presence is best
// effort: callers log write failures and keep going.
type PresenceStore interface {
	UpdateUserAvailability(ctx context.Context, userID, status string) error
}

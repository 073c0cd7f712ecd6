package model

import "context"

// Store adapts the package's collection operations to the store
// interfaces the gateway core consumes.
type Store struct{}

func NewStore() *Store { return &Store{} }

func (*Store) GetUser(ctx context.Context, userID string) (*User, error) {
	return GetUser(ctx, userID)
}

func (*Store) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	return GetConversation(ctx, conversationID)
}

func (*Store) GetConversationMembers(ctx context.Context, conversationID string) ([]*Membership, error) {
	return GetConversationMembers(ctx, conversationID)
}

func (*Store) GetMembership(ctx context.Context, conversationID, userID string) (*Membership, error) {
	return GetMembership(ctx, conversationID, userID)
}

func (*Store) CreateMessage(ctx context.Context, conversationID, senderID, content string, attachments []string) (*Message, error) {
	return CreateMessage(ctx, conversationID, senderID, content, attachments)
}

func (*Store) GetMessage(ctx context.Context, msgID string) (*Message, error) {
	return GetMessage(ctx, msgID)
}

func (*Store) EditMessage(ctx context.Context, msgID, content string) (*Message, error) {
	return EditMessage(ctx, msgID, content)
}

func (*Store) DeleteMessage(ctx context.Context, msgID string) (*Message, error) {
	return DeleteMessage(ctx, msgID)
}

func (*Store) CreateDirectConversation(ctx context.Context, a, b string) (*Conversation, error) {
	return CreateDirectConversation(ctx, a, b)
}

func (*Store) CreateGroupConversation(ctx context.Context, name, creatorID string, memberIDs []string) (*Conversation, error) {
	return CreateGroupConversation(ctx, name, creatorID, memberIDs)
}

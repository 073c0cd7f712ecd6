package model

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pulsechat/gateway/service/mgo"
	"github.com/pulsechat/gateway/tools/errs"
	"github.com/pulsechat/gateway/tools/ids"
)

// Message is the persisted message record. Deletion is logical only:
// recipients may already hold a delivered copy, so history is kept.
type Message struct {
	MsgID          string   `bson:"msg_id" json:"msgId"`
	ConversationID string   `bson:"conversation_id" json:"conversationId"`
	SenderID       string   `bson:"sender_id" json:"senderId"`
	Content        string   `bson:"content" json:"content"`
	Attachments    []string `bson:"attachments,omitempty" json:"attachments,omitempty"`
	CreateTime     int64    `bson:"create_time" json:"createTime"` // Unix ms
	IsDeleted      bool     `bson:"is_deleted" json:"isDeleted"`
	EditedAt       int64    `bson:"edited_at,omitempty" json:"editedAt,omitempty"` // Unix ms, 0 = never edited
}

func (*Message) GetTableName() string { return "message" }

func (m *Message) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}

// CreateMessage persists a new message, assigning id and timestamp.
// Fails with ErrNotFound when the conversation does not exist.
func CreateMessage(ctx context.Context, conversationID, senderID, content string, attachments []string) (*Message, error) {
	if _, err := GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	msg := &Message{
		MsgID:          ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
		CreateTime:     time.Now().UnixMilli(),
	}
	if _, err := msg.Collection().InsertOne(ctx, msg); err != nil {
		return nil, errors.Wrapf(err, "insert message conv=%s", conversationID)
	}
	return msg, nil
}

// GetMessage returns the message or ErrNotFound.
func GetMessage(ctx context.Context, msgID string) (*Message, error) {
	var m Message
	err := (&Message{}).Collection().FindOne(ctx, bson.M{"msg_id": msgID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("message " + msgID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get message %s", msgID)
	}
	return &m, nil
}

// EditMessage replaces the content of a non-deleted message and stamps
// edited_at. The caller checks sender identity; this guards only the
// deleted state so an edit can never resurrect a deleted message.
func EditMessage(ctx context.Context, msgID, content string) (*Message, error) {
	now := time.Now().UnixMilli()
	res, err := (&Message{}).Collection().UpdateOne(ctx,
		bson.M{"msg_id": msgID, "is_deleted": false},
		bson.M{"$set": bson.M{"content": content, "edited_at": now}},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "edit message %s", msgID)
	}
	if res.MatchedCount == 0 {
		// Either missing or already deleted; tell them apart.
		if _, gerr := GetMessage(ctx, msgID); gerr != nil {
			return nil, gerr
		}
		return nil, errs.ErrPermissionDenied.WithDetail("message " + msgID + " is deleted")
	}
	return GetMessage(ctx, msgID)
}

// DeleteMessage marks the message deleted. Idempotent.
func DeleteMessage(ctx context.Context, msgID string) (*Message, error) {
	msg, err := GetMessage(ctx, msgID)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return msg, nil
	}
	if _, err := (&Message{}).Collection().UpdateOne(ctx,
		bson.M{"msg_id": msgID},
		bson.M{"$set": bson.M{"is_deleted": true}},
	); err != nil {
		return nil, errors.Wrapf(err, "delete message %s", msgID)
	}
	msg.IsDeleted = true
	return msg, nil
}

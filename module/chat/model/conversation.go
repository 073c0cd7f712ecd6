package model

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pulsechat/gateway/service/mgo"
	"github.com/pulsechat/gateway/tools/errs"
	"github.com/pulsechat/gateway/tools/ids"
)

// Conversation types.
const (
	ConversationDirect int32 = 1
	ConversationGroup  int32 = 2
)

type Conversation struct {
	ConversationID   string `bson:"conversation_id" json:"conversationId"`
	ConversationType int32  `bson:"conversation_type" json:"conversationType"`
	Name             string `bson:"name,omitempty" json:"name,omitempty"`
	// DirectKey dedups direct conversations: "d:<minUser>:<maxUser>",
	// empty for groups. Unique index expected on non-empty values.
	DirectKey  string `bson:"direct_key,omitempty" json:"-"`
	CreateTime int64  `bson:"create_time" json:"createTime"` // Unix ms
}

func (*Conversation) GetTableName() string { return "conversation" }

func (c *Conversation) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

// Membership binds a user to a conversation with its per-conversation
// permissions. Only members receive live events; only can_message=true
// members may create messages.
type Membership struct {
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	UserID         string `bson:"user_id" json:"userId"`
	IsAdmin        bool   `bson:"is_admin" json:"isAdmin"`
	CanMessage     bool   `bson:"can_message" json:"canMessage"`
	JoinTime       int64  `bson:"join_time" json:"joinTime"` // Unix ms
}

func (*Membership) GetTableName() string { return "membership" }

func (m *Membership) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}

// DirectKey builds the dedup key for an unordered user pair.
func DirectKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "d:" + a + ":" + b
}

// GetConversation returns the conversation or ErrNotFound.
func GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var c Conversation
	err := (&Conversation{}).Collection().
		FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("conversation " + conversationID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get conversation %s", conversationID)
	}
	return &c, nil
}

// GetConversationMembers returns memberships in join order.
func GetConversationMembers(ctx context.Context, conversationID string) ([]*Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "join_time", Value: 1}, {Key: "user_id", Value: 1}})
	cur, err := (&Membership{}).Collection().
		Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find members %s", conversationID)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "decode members %s", conversationID)
	}
	return out, nil
}

// GetMembership returns the membership of user in conversation, or
// ErrPermissionDenied when the user is not a member.
func GetMembership(ctx context.Context, conversationID, userID string) (*Membership, error) {
	var m Membership
	err := (&Membership{}).Collection().
		FindOne(ctx, bson.M{"conversation_id": conversationID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrPermissionDenied.WithDetail("not a member of " + conversationID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get membership %s/%s", conversationID, userID)
	}
	return &m, nil
}

// directConvOps abstracts the collection writes behind the direct
// find-or-create flow so the decision logic is testable without a live
// database. findByKey reports absence as mongo.ErrNoDocuments.
type directConvOps struct {
	findByKey     func(ctx context.Context, key string) (*Conversation, error)
	insertConv    func(ctx context.Context, conv *Conversation) error
	insertMembers func(ctx context.Context, members []interface{}) error
}

func mongoDirectConvOps() directConvOps {
	return directConvOps{
		findByKey: func(ctx context.Context, key string) (*Conversation, error) {
			var c Conversation
			if err := (&Conversation{}).Collection().
				FindOne(ctx, bson.M{"direct_key": key}).Decode(&c); err != nil {
				return nil, err
			}
			return &c, nil
		},
		insertConv: func(ctx context.Context, conv *Conversation) error {
			_, err := conv.Collection().InsertOne(ctx, conv)
			return err
		},
		insertMembers: func(ctx context.Context, members []interface{}) error {
			_, err := (&Membership{}).Collection().InsertMany(ctx, members)
			return err
		},
	}
}

// CreateDirectConversation returns the conversation for the unordered
// pair (a, b), creating it (plus both memberships) on first use. The
// same pair always maps to the same conversation id; the unique
// direct_key index (EnsureIndexes) settles concurrent first uses.
func CreateDirectConversation(ctx context.Context, a, b string) (*Conversation, error) {
	return createDirectConversation(ctx, a, b, mongoDirectConvOps())
}

func createDirectConversation(ctx context.Context, a, b string, ops directConvOps) (*Conversation, error) {
	key := DirectKey(a, b)

	existing, err := ops.findByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrapf(err, "lookup direct %s", key)
	}

	now := time.Now().UnixMilli()
	conv := &Conversation{
		ConversationID:   ids.GenerateString(),
		ConversationType: ConversationDirect,
		DirectKey:        key,
		CreateTime:       now,
	}
	if err := ops.insertConv(ctx, conv); err != nil {
		// Lost a concurrent create for the same pair: re-read the winner.
		if mongo.IsDuplicateKeyError(err) {
			if winner, rerr := ops.findByKey(ctx, key); rerr == nil {
				return winner, nil
			}
		}
		return nil, errors.Wrapf(err, "insert direct %s", key)
	}

	members := []interface{}{
		&Membership{ConversationID: conv.ConversationID, UserID: a, CanMessage: true, JoinTime: now},
		&Membership{ConversationID: conv.ConversationID, UserID: b, CanMessage: true, JoinTime: now},
	}
	if err := ops.insertMembers(ctx, members); err != nil {
		return nil, errors.Wrapf(err, "insert direct members %s", key)
	}
	return conv, nil
}

// CreateGroupConversation creates a group with the creator as admin.
func CreateGroupConversation(ctx context.Context, name, creatorID string, memberIDs []string) (*Conversation, error) {
	now := time.Now().UnixMilli()
	conv := &Conversation{
		ConversationID:   ids.GenerateString(),
		ConversationType: ConversationGroup,
		Name:             name,
		CreateTime:       now,
	}
	if _, err := conv.Collection().InsertOne(ctx, conv); err != nil {
		return nil, errors.Wrapf(err, "insert group %s", name)
	}

	seen := map[string]bool{creatorID: true}
	members := []interface{}{
		&Membership{ConversationID: conv.ConversationID, UserID: creatorID, IsAdmin: true, CanMessage: true, JoinTime: now},
	}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, &Membership{
			ConversationID: conv.ConversationID, UserID: id, CanMessage: true, JoinTime: now,
		})
	}
	if _, err := (&Membership{}).Collection().InsertMany(ctx, members); err != nil {
		return nil, errors.Wrapf(err, "insert group members %s", conv.ConversationID)
	}
	return conv, nil
}

package model

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pulsechat/gateway/service/mgo"
)

// Index names referenced by tests and operational tooling.
const (
	IdxUniqDirectKey  = "uniq_direct_key"
	IdxUniqUserID     = "uniq_user_id"
	IdxUniqMembership = "uniq_membership"
	IdxUniqMsgID      = "uniq_msg_id"
	IdxConvTimeline   = "ix_conv_timeline"
)

// collectionIndexes declares every index the models rely on. The
// direct_key index is what makes CreateDirectConversation's
// lost-race re-read correct: without the unique constraint two racing
// creates for the same pair would both insert.
func collectionIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		(&User{}).GetTableName(): {{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(IdxUniqUserID),
		}},
		(&Conversation{}).GetTableName(): {{
			// Partial: groups carry no direct_key and must not collide.
			Keys: bson.D{{Key: "direct_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(IdxUniqDirectKey).
				SetPartialFilterExpression(bson.M{"direct_key": bson.M{"$gt": ""}}),
		}},
		(&Membership{}).GetTableName(): {{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(IdxUniqMembership),
		}},
		(&Message{}).GetTableName(): {
			{
				Keys:    bson.D{{Key: "msg_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(IdxUniqMsgID),
			},
			{
				Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "create_time", Value: 1}},
				Options: options.Index().SetName(IdxConvTimeline),
			},
		},
	}
}

// EnsureIndexes creates any missing indexes. Call once from main after
// the mongo connection is up; existing indexes are left untouched.
func EnsureIndexes(ctx context.Context) error {
	db := mgo.GetDB()
	for collName, indexes := range collectionIndexes() {
		coll := db.Collection(collName)

		existing, err := coll.Indexes().ListSpecifications(ctx)
		if err != nil {
			return fmt.Errorf("list indexes for %s: %w", collName, err)
		}
		existingNames := make(map[string]struct{}, len(existing))
		for _, spec := range existing {
			existingNames[spec.Name] = struct{}{}
		}

		for _, idx := range indexes {
			if idx.Options != nil && idx.Options.Name != nil {
				if _, ok := existingNames[*idx.Options.Name]; ok {
					continue
				}
			}
			if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
				return fmt.Errorf("create index %s on %s: %w", *idx.Options.Name, collName, err)
			}
		}
	}
	return nil
}

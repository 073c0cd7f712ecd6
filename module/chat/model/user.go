package model

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pulsechat/gateway/service/mgo"
	"github.com/pulsechat/gateway/tools/errs"
)

type User struct {
	UserID     string `bson:"user_id" json:"userId"`
	Name       string `bson:"name" json:"name"`
	CreateTime int64  `bson:"create_time" json:"createTime"` // Unix ms
}

func (*User) GetTableName() string { return "user" }

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}

// Insert registers a new user.
func (u *User) Insert(ctx context.Context) error {
	if _, err := u.Collection().InsertOne(ctx, u); err != nil {
		return errors.Wrapf(err, "insert user %s", u.UserID)
	}
	return nil
}

// GetUser returns the user or ErrNotFound.
func GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := (&User{}).Collection().FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("user " + userID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get user %s", userID)
	}
	return &u, nil
}

package storage

import (
	"context"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pulsechat/gateway/service/storage/redis"
)

// PresenceStore keeps per-user availability in Redis.
// Key layout: im:presence:<user> -> status string ("online", "offline",
// or an application-defined status).
type PresenceStore struct{}

func NewPresenceStore() *PresenceStore { return &PresenceStore{} }

func presenceKey(user string) string { return "im:presence:" + user }

// UpdateUserAvailability persists the user's availability status.
func (s *PresenceStore) UpdateUserAvailability(ctx context.Context, userID, status string) error {
	if err := redis.Client().Set(ctx, presenceKey(userID), status, 0).Err(); err != nil {
		return errors.Wrapf(err, "presence set user=%s", userID)
	}
	return nil
}

// GetUserAvailability returns the stored status; "offline" when the
// user was never seen.
func (s *PresenceStore) GetUserAvailability(ctx context.Context, userID string) (string, error) {
	val, err := redis.Client().Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "offline", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "presence get user=%s", userID)
	}
	return val, nil
}

package presence

import (
	"context"
	"log"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const keyOnlineUsers = "chat:online_users"

// Tracker records which users currently hold at least one live session.
type Tracker interface {
	SetOnline(ctx context.Context, userID int) error
	SetOffline(ctx context.Context, userID int) error
	OnlineUsers(ctx context.Context) ([]int, error)
}

// NewTracker builds a redis tracker or a noop one when redis is unconfigured.
func NewTracker(addr, password string, db int) Tracker {
	if addr == "" {
		log.Printf("presence disabled, using noop: empty redis addr")
		return noopTracker{}
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &redisTracker{rdb: rdb}
}

type redisTracker struct {
	rdb *redis.Client
}

func (t *redisTracker) SetOnline(ctx context.Context, userID int) error {
	return t.rdb.SAdd(ctx, keyOnlineUsers, userID).Err()
}

func (t *redisTracker) SetOffline(ctx context.Context, userID int) error {
	return t.rdb.SRem(ctx, keyOnlineUsers, userID).Err()
}

func (t *redisTracker) OnlineUsers(ctx context.Context) ([]int, error) {
	members, err := t.rdb.SMembers(ctx, keyOnlineUsers).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type noopTracker struct{}

func (noopTracker) SetOnline(ctx context.Context, userID int) error  { return nil }
func (noopTracker) SetOffline(ctx context.Context, userID int) error { return nil }
func (noopTracker) OnlineUsers(ctx context.Context) ([]int, error)   { return nil, nil }

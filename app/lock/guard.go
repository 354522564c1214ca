package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a
// guard that outlived its TTL never frees somebody else's lease.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Guard is a short-lived mutual exclusion lease in Redis.
type Guard struct {
	client redis.UniversalClient
	prefix string
}

func NewGuard(client redis.UniversalClient, prefix string) *Guard {
	return &Guard{client: client, prefix: prefix}
}

// NewClient connects and verifies the server answers before returning.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Acquire takes the lease for key. ok is false when another holder has it.
func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(key), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *Guard) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return g.client.Eval(ctx, releaseScript, []string{g.key(key)}, token).Err()
}

func (g *Guard) key(key string) string {
	if g.prefix == "" {
		return key
	}
	return g.prefix + ":" + key
}

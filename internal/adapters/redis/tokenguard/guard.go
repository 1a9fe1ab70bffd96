package tokenguard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rtg"

// Guard is a Redis-backed implementation of tokenguard.Guard. Consumed
// markers are shared across processes, so a recovery link replayed against
// another instance is still rejected.
//
// Only a hash of the token is stored; the token itself never reaches Redis.
type Guard struct {
	client *redis.Client
	prefix string
}

func NewGuard(client *redis.Client) *Guard {
	return &Guard{
		client: client,
		prefix: keyPrefix,
	}
}

func (g *Guard) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return g.prefix + ":" + hex.EncodeToString(sum[:])
}

func (g *Guard) Consume(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(token), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("token guard redis: %w", err)
	}
	return ok, nil
}

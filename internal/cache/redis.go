package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hsrini/wellness/internal/domain"
)

// RedisCache stores JSON-encoded carts with a jittered TTL so a burst
// of writes does not expire as one thundering herd.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// cartEnvelope carries the revision alongside the cart; domain.Cart
// hides the revision from API payloads, but a cached cart must keep it
// so a later save still has a valid concurrency token.
type cartEnvelope struct {
	Cart     domain.Cart `json:"cart"`
	Revision int64       `json:"revision"`
}

func (r *RedisCache) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var env cartEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	env.Cart.Revision = env.Revision
	return &env.Cart, nil
}

func (r *RedisCache) Set(ctx context.Context, cartID string, cart *domain.Cart) error {
	data, err := json.Marshal(cartEnvelope{Cart: *cart, Revision: cart.Revision})
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(cartID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (r *RedisCache) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cacheKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "eaglebank:session:"

// RedisStore keeps the token in Redis so several hosts can share one session.
// A zero TTL stores the key without expiry.
type RedisStore struct {
	client goredis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisStore(client goredis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, key: prefix + StorageKey, ttl: ttl}
}

func (r *RedisStore) Key() string { return r.key }

func (r *RedisStore) Load(ctx context.Context) (Token, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return Token(val), nil
}

func (r *RedisStore) Save(ctx context.Context, token Token) error {
	if token.IsZero() {
		return r.Delete(ctx)
	}
	if err := r.client.Set(ctx, r.key, string(token), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

package quotecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avstrong/bungalows/internal/pricing"
)

const keyPrefix = "bungalows:"

// Redis shares computed quotes between engine instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*pricing.QuoteResult, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("get quote %v from redis: %w", key, err)
	}

	var quote pricing.QuoteResult
	if err := json.Unmarshal(val, &quote); err != nil {
		return nil, false, fmt.Errorf("decode cached quote %v: %w", key, err)
	}

	return &quote, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, quote *pricing.QuoteResult) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote %v: %w", key, err)
	}

	if err := r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set quote %v in redis: %w", key, err)
	}

	return nil
}

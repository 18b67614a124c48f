package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"playshelf/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with ttl. Redis failures degrade to calling fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	namespace := keyNamespace(key)
	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheRequests.WithLabelValues(namespace, "hit").Inc()
		return nil
	}
	observability.CacheRequests.WithLabelValues(namespace, "miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	// Best-effort.
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// SetFlag stores a marker key with ttl.
func SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	return client.Set(ctx, key, "1", ttl).Err()
}

// Exists reports whether key is present. It reports false when Redis is unavailable.
func Exists(ctx context.Context, key string) bool {
	if client == nil {
		return false
	}
	n, err := client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// Take deletes key and reports whether it existed.
func Take(ctx context.Context, key string) (bool, error) {
	if client == nil {
		return false, errors.New("redis unavailable")
	}
	n, err := client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func keyNamespace(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 {
		return parts[0] + ":" + parts[1]
	}
	return parts[0]
}

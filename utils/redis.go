package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("NewRedisClient: failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: redis connection failed: %w", err)
	}
	return client, nil
}

// KeyStore wraps the short-lived coordination keys the app keeps in Redis:
// sweep locks and delivery de-duplication markers. A nil client turns every
// call into a permissive no-op so single-instance deploys work without Redis.
type KeyStore struct {
	client *redis.Client
	prefix string
}

func NewKeyStore(client *redis.Client, prefix string) *KeyStore {
	return &KeyStore{client: client, prefix: prefix}
}

func (k *KeyStore) key(name string) string {
	return k.prefix + name
}

// TryLock acquires name for ttl. The returned release func is always safe to call.
func (k *KeyStore) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, func(), error) {
	if k == nil || k.client == nil {
		return true, func() {}, nil
	}

	key := k.key("lock:" + name)
	ok, err := k.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, func() {}, fmt.Errorf("TryLock: %s: %w", name, err)
	}
	if !ok {
		return false, func() {}, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		k.client.Del(ctx, key)
	}
	return true, release, nil
}

// FirstSeen reports whether name was not marked within the last ttl, marking it.
func (k *KeyStore) FirstSeen(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if k == nil || k.client == nil {
		return true, nil
	}

	ok, err := k.client.SetNX(ctx, k.key("seen:"+name), 1, ttl).Result()
	if err != nil {
		return true, fmt.Errorf("FirstSeen: %s: %w", name, err)
	}
	return ok, nil
}

// Forget drops the marker set by FirstSeen.
func (k *KeyStore) Forget(ctx context.Context, name string) error {
	if k == nil || k.client == nil {
		return nil
	}
	if err := k.client.Del(ctx, k.key("seen:"+name)).Err(); err != nil {
		return fmt.Errorf("Forget: %s: %w", name, err)
	}
	return nil
}

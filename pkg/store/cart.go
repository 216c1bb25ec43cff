package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/payload"
)

// MemoryCart keeps carts in process memory.
type MemoryCart struct {
	mu    sync.RWMutex
	carts map[string][]payload.CartItem
}

// NewMemoryCart creates an empty cart store.
func NewMemoryCart() *MemoryCart {
	return &MemoryCart{carts: make(map[string][]payload.CartItem)}
}

func (c *MemoryCart) AddItem(ctx context.Context, item *payload.CartItem) error {
	if _, err := prepareItem(item); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carts[item.CartID] = append(c.carts[item.CartID], *item)
	return nil
}

func (c *MemoryCart) Items(ctx context.Context, cartID string) ([]payload.CartItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := c.carts[cartID]
	out := make([]payload.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (c *MemoryCart) Close() error { return nil }

// RedisCart keeps each cart as a Redis list of JSON items.
type RedisCart struct {
	client *redis.Client
	prefix string
}

// NewRedisCart connects to the Redis server at url.
func NewRedisCart(ctx context.Context, url string) (*RedisCart, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, persistence(err, "connect redis")
	}
	return NewRedisCartFromClient(client), nil
}

// NewRedisCartFromClient wraps an existing client.
func NewRedisCartFromClient(client *redis.Client) *RedisCart {
	return &RedisCart{client: client, prefix: "mockup:cart:"}
}

func (c *RedisCart) AddItem(ctx context.Context, item *payload.CartItem) error {
	data, err := prepareItem(item)
	if err != nil {
		return err
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := c.client.RPush(ctx, c.prefix+item.CartID, data).Err(); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	return persistence(err, "add cart item")
}

func (c *RedisCart) Items(ctx context.Context, cartID string) ([]payload.CartItem, error) {
	raw, err := c.client.LRange(ctx, c.prefix+cartID, 0, -1).Result()
	if err != nil {
		return nil, persistence(err, "read cart %s", cartID)
	}
	items := make([]payload.CartItem, 0, len(raw))
	for _, r := range raw {
		var item payload.CartItem
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			return nil, persistence(err, "decode cart item")
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *RedisCart) Close() error { return c.client.Close() }

var (
	_ Cart = (*MemoryCart)(nil)
	_ Cart = (*RedisCart)(nil)
)

package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/init_availability.lua
var initAvailabilityScript string

//go:embed scripts/decrement_availability.lua
var decrementAvailabilityScript string

//go:embed scripts/set_availability.lua
var setAvailabilityScript string

// Client caches per-apartment bed availability for listing reads. The
// database row is always the source of truth; confirmation decisions
// never consult this cache.
type Client struct {
	rdb             *redis.Client
	initScript      *redis.Script
	decrementScript *redis.Script
	setScript       *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		initScript:      redis.NewScript(initAvailabilityScript),
		decrementScript: redis.NewScript(decrementAvailabilityScript),
		setScript:       redis.NewScript(setAvailabilityScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func availabilityKey(apartmentID string) string {
	return fmt.Sprintf("availability:%s", apartmentID)
}

// InitAvailability seeds the cache entry for an apartment, typically
// when a listing is approved.
func (c *Client) InitAvailability(ctx context.Context, apartmentID string, available, total int) error {
	_, err := c.initScript.Run(ctx, c.rdb, []string{availabilityKey(apartmentID)}, available, total).Result()
	if err != nil {
		return fmt.Errorf("init availability script failed: %w", err)
	}
	return nil
}

// DecrementAvailability atomically lowers the cached count after a
// confirmed booking. Returns false when the entry is absent or already
// at zero.
func (c *Client) DecrementAvailability(ctx context.Context, apartmentID string) (bool, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb, []string{availabilityKey(apartmentID)}).Result()
	if err != nil {
		return false, fmt.Errorf("decrement availability script failed: %w", err)
	}
	n, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}
	return n == 1, nil
}

// SetAvailability overwrites the cached count with the committed
// database value.
func (c *Client) SetAvailability(ctx context.Context, apartmentID string, available int) error {
	_, err := c.setScript.Run(ctx, c.rdb, []string{availabilityKey(apartmentID)}, available).Result()
	if err != nil {
		return fmt.Errorf("set availability script failed: %w", err)
	}
	return nil
}

// GetAvailability reads the cached count. The second return reports a
// cache hit.
func (c *Client) GetAvailability(ctx context.Context, apartmentID string) (int, bool, error) {
	val, err := c.rdb.HGet(ctx, availabilityKey(apartmentID), "available").Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// SetIdempotencyKey stores a client-supplied booking idempotency key
// with TTL.
func (c *Client) SetIdempotencyKey(ctx context.Context, key, bookingID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), bookingID, ttl).Err()
}

// GetIdempotencyKey returns the booking previously created under a key,
// if any.
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

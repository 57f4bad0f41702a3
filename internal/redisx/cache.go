package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/redis/go-redis/v9"
	"time"
)

// OrderCache is a read-through cache for single orders. A nil cache, or one built
// over a nil client, misses on every Get and ignores writes.
//
// Entries are hashes {v, data}. Set only replaces an entry holding an older order
// version, and a deleted order leaves a "gone" marker for one TTL, so a reader that
// loaded the row before a mutation cannot put the old copy back.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var setOrderScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'gone') == 1 then return 0 end
local cur = tonumber(redis.call('HGET', KEYS[1], 'v') or '-1')
if cur >= tonumber(ARGV[1]) then return 0 end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

func NewOrderCache(rdb *redis.Client) *OrderCache {
	return &OrderCache{rdb: rdb, ttl: TTLOrderCache}
}

func (c *OrderCache) enabled() bool { return c != nil && c.rdb != nil }

func (c *OrderCache) Get(ctx context.Context, id string) (*orders.Order, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	vals, err := c.rdb.HMGet(ctx, Key(KeyOrder, id), "data", "gone").Result()
	if err != nil {
		return nil, false, err
	}
	data, _ := vals[0].(string)
	if vals[1] != nil || data == "" {
		return nil, false, nil
	}
	var o orders.Order
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		// corrupt entry, drop it
		_ = c.rdb.Del(ctx, Key(KeyOrder, id)).Err()
		return nil, false, nil
	}
	return &o, true, nil
}

// Set stores o unless the cache already holds the same or a newer version of it,
// or the order was deleted. stored reports whether the entry was written.
func (c *OrderCache) Set(ctx context.Context, o *orders.Order) (stored bool, err error) {
	if !c.enabled() || o == nil {
		return false, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return false, err
	}
	n, err := setOrderScript.Run(ctx, c.rdb, []string{Key(KeyOrder, o.ID)},
		o.Version, b, c.ttl.Milliseconds()).Int()
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	return n == 1, err
}

// Tombstone replaces the entry of a deleted order with a marker that lives one TTL.
func (c *OrderCache) Tombstone(ctx context.Context, id string) error {
	if !c.enabled() {
		return nil
	}
	key := Key(KeyOrder, id)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, "v", "data")
		pipe.HSet(ctx, key, "gone", 1)
		pipe.PExpire(ctx, key, c.ttl)
		return nil
	})
	return err
}

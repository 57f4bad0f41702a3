package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNewEmptyAddrDisables(t *testing.T) {
	assert.Nil(t, New(""))
	assert.NoError(t, Ping(context.Background(), nil))
}

func TestOrderCache(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	cache := NewOrderCache(rdb)

	_, ok, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	o := &orders.Order{
		ID:        "o-1",
		ProductID: "p-1",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("5.25"),
		Total:     decimal.RequireFromString("10.50"),
		Status:    orders.StatusUnpaid,
		Version:   1,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	stored, err := cache.Set(ctx, o)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("order:o-1"))
	assert.Equal(t, TTLOrderCache, mr.TTL("order:o-1"))

	got, ok, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, got.Total.Equal(o.Total))

	require.NoError(t, cache.Tombstone(ctx, "o-1"))
	_, ok, err = cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, TTLOrderCache, mr.TTL("order:o-1"))
}

func TestOrderCacheKeepsNewestVersion(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	cache := NewOrderCache(rdb)

	fresh := &orders.Order{ID: "o-1", Quantity: 5, Status: orders.StatusPaid, Version: 3}
	stale := &orders.Order{ID: "o-1", Quantity: 2, Status: orders.StatusUnpaid, Version: 2}

	stored, err := cache.Set(ctx, fresh)
	require.NoError(t, err)
	require.True(t, stored)

	// a reader that loaded the row before the update finishes last
	stored, err = cache.Set(ctx, stale)
	require.NoError(t, err)
	assert.False(t, stored)

	got, ok, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, int64(3), got.Version)
}

func TestOrderCacheTombstoneBlocksSet(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	cache := NewOrderCache(rdb)

	require.NoError(t, cache.Tombstone(ctx, "o-1"))
	stored, err := cache.Set(ctx, &orders.Order{ID: "o-1", Version: 9})
	require.NoError(t, err)
	assert.False(t, stored)

	_, ok, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderCacheCorruptEntryIsAMiss(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.HSet("order:o-1", "v", "1", "data", "{not json")

	_, ok, err := NewOrderCache(rdb).Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("order:o-1"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *OrderCache
	ctx := context.Background()
	_, ok, err := cache.Get(ctx, "x")
	assert.NoError(t, err)
	assert.False(t, ok)
	stored, err := cache.Set(ctx, &orders.Order{ID: "x"})
	assert.NoError(t, err)
	assert.False(t, stored)
	assert.NoError(t, NewOrderCache(nil).Tombstone(ctx, "x"))
}

func TestIdempotencyLifecycle(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	idem := NewIdempotency(rdb)

	existing, owner, err := idem.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, owner)
	assert.Empty(t, existing)

	_, _, err = idem.Reserve(ctx, "abc")
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, idem.Complete(ctx, "abc", "o-9"))
	existing, owner, err = idem.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, owner)
	assert.Equal(t, "o-9", existing)
	assert.Equal(t, TTLIdempotency, mr.TTL("idem:order:place:abc"))
}

func TestIdempotencyRelease(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	idem := NewIdempotency(rdb)

	_, owner, err := idem.Reserve(ctx, "k")
	require.NoError(t, err)
	require.True(t, owner)
	require.NoError(t, idem.Release(ctx, "k"))

	_, owner, err = idem.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, owner)
}

func TestIdempotencyDisabled(t *testing.T) {
	ctx := context.Background()
	for _, idem := range []*Idempotency{nil, NewIdempotency(nil)} {
		_, owner, err := idem.Reserve(ctx, "k")
		assert.NoError(t, err)
		assert.True(t, owner)
	}
	_, rdb := newRedis(t)
	_, owner, err := NewIdempotency(rdb).Reserve(ctx, "")
	assert.NoError(t, err)
	assert.True(t, owner, "requests without a key are never deduplicated")
}

package redisx

import (
	"context"
	"errors"
	"github.com/redis/go-redis/v9"
	"time"
)

const pending = "pending"

// ErrInFlight means another request holding the same key has not finished yet.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

// Idempotency remembers which order an Idempotency-Key produced. A nil value, or one
// built over a nil client, never deduplicates.
type Idempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb, ttl: TTLIdempotency}
}

func (i *Idempotency) enabled() bool { return i != nil && i.rdb != nil }

// Reserve claims key. It returns ("", true) when the caller owns the key and must
// follow up with Complete or Release, (orderID, false) when the key already produced
// an order, and ErrInFlight when a concurrent owner is still placing it.
func (i *Idempotency) Reserve(ctx context.Context, key string) (string, bool, error) {
	if !i.enabled() || key == "" {
		return "", true, nil
	}
	k := Key(KeyIdemOrderPlace, key)
	ok, err := i.rdb.SetNX(ctx, k, pending, i.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := i.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = i.rdb.SetNX(ctx, k, pending, i.ttl).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return "", true, nil
		}
		return "", false, ErrInFlight
	}
	if err != nil {
		return "", false, err
	}
	if v == pending {
		return "", false, ErrInFlight
	}
	return v, false, nil
}

func (i *Idempotency) Complete(ctx context.Context, key, orderID string) error {
	if !i.enabled() || key == "" {
		return nil
	}
	return i.rdb.Set(ctx, Key(KeyIdemOrderPlace, key), orderID, i.ttl).Err()
}

// Release forgets a reservation whose placement failed so the client may retry.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	if !i.enabled() || key == "" {
		return nil
	}
	return i.rdb.Del(ctx, Key(KeyIdemOrderPlace, key)).Err()
}

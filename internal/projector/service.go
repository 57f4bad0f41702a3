// Package projector turns ledger events into Redis read models: the latest status
// of each order, the stock of each product, and the set of products running low.
package projector

import (
	"context"
	kafkax "github.com/ariefcatur/go-inventory-ledger/internal/kafka"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/ariefcatur/go-inventory-ledger/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"strconv"
)

// OrderView is the projected state of one order, stored as a hash at
// order_status:{id}. Version is the order row version it was built from.
type OrderView struct {
	Status   orders.Status
	Quantity int
	Total    decimal.Decimal
	Version  int64
}

// Events of different types travel on different topics, so a newer event can be
// consumed before an older one. Both scripts keep the highest version seen and
// refuse writes to an entity that was tombstoned (order cancelled, product deleted).
// Version 0 means the event carried none and always applies.
var putOrderScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'gone') == 1 then return 0 end
local v = tonumber(ARGV[1])
local cur = tonumber(redis.call('HGET', KEYS[1], 'v') or '0')
if v > 0 and cur >= v then return 0 end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'status', ARGV[2], 'quantity', ARGV[3], 'total', ARGV[4])
return 1
`)

// returns -1 when skipped, otherwise the SADD/SREM reply for the low-stock set
var putStockScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'gone') == 1 then return -1 end
local v = tonumber(ARGV[1])
local cur = tonumber(redis.call('HGET', KEYS[1], 'v') or '0')
if v > 0 and cur >= v then return -1 end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'stock', ARGV[2])
if ARGV[3] == '1' then
  return redis.call('SADD', KEYS[2], ARGV[4])
end
redis.call('SREM', KEYS[2], ARGV[4])
return 0
`)

type Service struct {
	Redis             *redis.Client
	Log               *zap.Logger
	LowStockThreshold int
	Name              string // dedup namespace
}

// HandleMessage dipasang sebagai handler consumer. Undecodable messages are logged
// and skipped so they do not block the partition.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.log().Error("skip message", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	return s.Apply(ctx, env)
}

// Apply projects one envelope at most once per event id.
func (s *Service) Apply(ctx context.Context, env orders.Envelope) error {
	dkey := redisx.Key(redisx.KeyDedup, s.name(), env.EventID)
	if seen, err := redisx.Exists(ctx, s.Redis, dkey); err != nil {
		return err
	} else if seen {
		return nil
	}

	if err := s.project(ctx, env); err != nil {
		return err
	}
	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func (s *Service) project(ctx context.Context, env orders.Envelope) error {
	switch env.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return s.skip(env, err)
		}
		v := OrderView{Status: p.Status, Quantity: p.Quantity, Total: p.Total, Version: p.OrderVersion}
		if err := s.putOrder(ctx, p.OrderID, v); err != nil {
			return err
		}
		return s.putStock(ctx, p.ProductID, p.RemainingStock, p.StockVersion)

	case orders.EventOrderRevised:
		p, err := kafkax.UnwrapPayload[orders.OrderRevisedPayload](env.Payload)
		if err != nil {
			return s.skip(env, err)
		}
		v := OrderView{Status: p.Status, Quantity: p.NewQuantity, Total: p.Total, Version: p.OrderVersion}
		if err := s.putOrder(ctx, p.OrderID, v); err != nil {
			return err
		}
		return s.putStock(ctx, p.ProductID, p.RemainingStock, p.StockVersion)

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return s.skip(env, err)
		}
		return s.putOrder(ctx, p.OrderID, OrderView{Status: p.To, Quantity: p.Quantity, Total: p.Total, Version: p.OrderVersion})

	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return s.skip(env, err)
		}
		if err := s.tombstone(ctx, redisx.Key(redisx.KeyOrderStatus, p.OrderID), "status", "quantity", "total"); err != nil {
			return err
		}
		if !p.Restored {
			return nil
		}
		return s.putStock(ctx, p.ProductID, p.RemainingStock, p.StockVersion)

	case orders.EventProductChanged:
		p, err := kafkax.UnwrapPayload[orders.ProductChangedPayload](env.Payload)
		if err != nil {
			return s.skip(env, err)
		}
		return s.putStock(ctx, p.ProductID, p.Stock, p.StockVersion)

	case orders.EventProductDeleted:
		p, err := kafkax.UnwrapPayload[orders.ProductDeletedPayload](env.Payload)
		if err != nil {
			return s.skip(env, err)
		}
		if err := s.tombstone(ctx, redisx.Key(redisx.KeyProductStock, p.ProductID), "stock"); err != nil {
			return err
		}
		return s.Redis.SRem(ctx, redisx.KeyLowStock, p.ProductID).Err()
	}
	return nil // ignore
}

func (s *Service) putOrder(ctx context.Context, orderID string, v OrderView) error {
	return putOrderScript.Run(ctx, s.Redis, []string{redisx.Key(redisx.KeyOrderStatus, orderID)},
		v.Version, string(v.Status), v.Quantity, v.Total.StringFixed(2)).Err()
}

func (s *Service) putStock(ctx context.Context, productID string, stock int, version int64) error {
	low := "0"
	if stock <= s.LowStockThreshold {
		low = "1"
	}
	added, err := putStockScript.Run(ctx, s.Redis,
		[]string{redisx.Key(redisx.KeyProductStock, productID), redisx.KeyLowStock},
		version, stock, low, productID).Int64()
	if err != nil {
		return err
	}
	if added == 1 {
		s.log().Warn("product stock low",
			zap.String("product_id", productID),
			zap.Int("stock", stock),
			zap.Int("threshold", s.LowStockThreshold))
	}
	return nil
}

// tombstone drops the projected fields and marks the key gone, so late events for
// the entity are ignored until the marker expires with the dedup window.
func (s *Service) tombstone(ctx context.Context, key string, fields ...string) error {
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, append([]string{"v"}, fields...)...)
		pipe.HSet(ctx, key, "gone", 1)
		pipe.Expire(ctx, key, redisx.TTLDedup)
		return nil
	})
	return err
}

// View reads the projected order; ok is false when there is none or it was cancelled.
func (s *Service) View(ctx context.Context, orderID string) (v OrderView, ok bool, err error) {
	vals, err := s.Redis.HMGet(ctx, redisx.Key(redisx.KeyOrderStatus, orderID), "v", "status", "quantity", "total").Result()
	if err != nil {
		return v, false, err
	}
	for _, x := range vals {
		if x == nil {
			return v, false, nil
		}
	}
	if v.Version, err = strconv.ParseInt(vals[0].(string), 10, 64); err != nil {
		return v, false, err
	}
	v.Status = orders.Status(vals[1].(string))
	if v.Quantity, err = strconv.Atoi(vals[2].(string)); err != nil {
		return v, false, err
	}
	if v.Total, err = decimal.NewFromString(vals[3].(string)); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Stock reads the projected stock of a product.
func (s *Service) Stock(ctx context.Context, productID string) (int, bool, error) {
	n, err := s.Redis.HGet(ctx, redisx.Key(redisx.KeyProductStock, productID), "stock").Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	return n, err == nil, err
}

// skip drops an event whose payload cannot be decoded; retrying would not help.
func (s *Service) skip(env orders.Envelope, err error) error {
	s.log().Error("skip event",
		zap.String("event_id", env.EventID),
		zap.String("event_type", env.EventType),
		zap.Error(err))
	return nil
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) name() string {
	if s.Name == "" {
		return "projector"
	}
	return s.Name
}

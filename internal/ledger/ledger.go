// Package ledger keeps product stock and order totals consistent across the
// order lifecycle: placing reserves stock, revising moves the reservation by the
// quantity delta, cancelling restores it exactly once.
package ledger

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"go.uber.org/zap"
	"time"
)

type Ledger struct {
	store           Store
	publisher       Publisher
	log             *zap.Logger
	now             func() time.Time
	defaultStatus   orders.Status
	repriceOnRevise bool
	producer        string
}

type Option func(*Ledger)

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithDefaultStatus(s orders.Status) Option {
	return func(l *Ledger) {
		if s != "" {
			l.defaultStatus = s
		}
	}
}

// WithRepriceOnRevise selects the revision pricing policy: true recomputes the total
// from the product's current price, false keeps the unit price captured at placement.
func WithRepriceOnRevise(b bool) Option {
	return func(l *Ledger) { l.repriceOnRevise = b }
}

// WithProducer sets the producer name stamped on emitted events.
func WithProducer(name string) Option {
	return func(l *Ledger) { l.producer = name }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:           store,
		publisher:       nopPublisher{},
		log:             zap.NewNop(),
		now:             func() time.Time { return time.Now().UTC() },
		defaultStatus:   orders.DefaultStatus,
		repriceOnRevise: true,
		producer:        "inventory-ledger",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PlaceOrder reserves quantity units of the product and records an order whose
// total is a snapshot of price * quantity.
func (l *Ledger) PlaceOrder(ctx context.Context, in orders.PlaceOrderInput) (*orders.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	status := l.defaultStatus
	if in.Status != "" {
		status, _ = orders.ParseStatus(string(in.Status))
	}

	var (
		order        *orders.Order
		remaining    int
		stockVersion int64
	)
	err := l.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p.Stock < in.Quantity {
			return &orders.StockError{ProductID: p.ID, Required: in.Quantity, Available: p.Stock}
		}
		total := orders.LineTotal(p.Price, in.Quantity)
		if err := orders.CheckTotal(total); err != nil {
			return err
		}

		now := l.now()
		p.Stock -= in.Quantity
		p.UpdatedAt = now
		p.Version++
		if err := tx.SaveProduct(ctx, p); err != nil {
			return err
		}

		order = &orders.Order{
			ProductID: p.ID,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
			Total:     total,
			Status:    status,
			Customer:  in.Customer,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		remaining, stockVersion = p.Stock, p.Version
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("product_id", order.ProductID),
		zap.Int("quantity", order.Quantity),
		zap.String("total", order.Total.String()),
		zap.Int("remaining_stock", remaining))
	l.emit(ctx, orders.EventOrderPlaced, order.ID, orders.OrderPlacedPayload{
		OrderID:        order.ID,
		ProductID:      order.ProductID,
		Quantity:       order.Quantity,
		UnitPrice:      order.UnitPrice,
		Total:          order.Total,
		Status:         order.Status,
		RemainingStock: remaining,
		OrderVersion:   order.Version,
		StockVersion:   stockVersion,
	})
	return order, nil
}

// ReviseOrderQuantity moves the order's reservation to newQuantity.
func (l *Ledger) ReviseOrderQuantity(ctx context.Context, orderID string, newQuantity int) (*orders.Order, error) {
	return l.UpdateOrder(ctx, orderID, orders.OrderPatch{Quantity: &newQuantity})
}

// ChangeOrderStatus relabels the order. Stock and total are untouched.
func (l *Ledger) ChangeOrderStatus(ctx context.Context, orderID string, status string) (*orders.Order, error) {
	return l.UpdateOrder(ctx, orderID, orders.OrderPatch{Status: &status})
}

// UpdateOrder applies a quantity revision, a status change and customer edits as one unit.
func (l *Ledger) UpdateOrder(ctx context.Context, orderID string, patch orders.OrderPatch) (*orders.Order, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var (
		order        *orders.Order
		oldQty       int
		oldStatus    orders.Status
		remaining    int
		stockVersion int64
	)
	err := l.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		oldQty, oldStatus = o.Quantity, o.Status
		now := l.now()

		if patch.Quantity != nil {
			p, err := tx.GetProduct(ctx, o.ProductID)
			if err != nil {
				return err
			}
			delta := *patch.Quantity - o.Quantity
			if delta > 0 && p.Stock < delta {
				return &orders.StockError{ProductID: p.ID, Required: delta, Available: p.Stock}
			}
			if l.repriceOnRevise {
				o.UnitPrice = p.Price
			}
			o.Quantity = *patch.Quantity
			o.Total = orders.LineTotal(o.UnitPrice, o.Quantity)
			if err := orders.CheckTotal(o.Total); err != nil {
				return err
			}
			if delta != 0 {
				p.Stock -= delta
				p.UpdatedAt = now
				p.Version++
				if err := tx.SaveProduct(ctx, p); err != nil {
					return err
				}
			}
			remaining, stockVersion = p.Stock, p.Version
		}

		patch.ApplyDetails(o)
		o.UpdatedAt = now
		o.Version++
		order = o
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	if patch.Quantity != nil {
		l.log.Info("order revised",
			zap.String("order_id", order.ID),
			zap.Int("old_quantity", oldQty),
			zap.Int("new_quantity", order.Quantity),
			zap.String("total", order.Total.String()),
			zap.Int("remaining_stock", remaining))
		l.emit(ctx, orders.EventOrderRevised, order.ID, orders.OrderRevisedPayload{
			OrderID:        order.ID,
			ProductID:      order.ProductID,
			OldQuantity:    oldQty,
			NewQuantity:    order.Quantity,
			Total:          order.Total,
			Status:         order.Status,
			RemainingStock: remaining,
			OrderVersion:   order.Version,
			StockVersion:   stockVersion,
		})
	}
	if order.Status != oldStatus {
		l.log.Info("order status changed",
			zap.String("order_id", order.ID),
			zap.String("from", string(oldStatus)),
			zap.String("to", string(order.Status)))
		l.emit(ctx, orders.EventOrderStatusChanged, order.ID, orders.OrderStatusChangedPayload{
			OrderID:      order.ID,
			From:         oldStatus,
			To:           order.Status,
			Quantity:     order.Quantity,
			Total:        order.Total,
			OrderVersion: order.Version,
		})
	}
	return order, nil
}

// CancelOrder restores the order's full quantity to its product and removes the order.
// A product that no longer exists is skipped.
func (l *Ledger) CancelOrder(ctx context.Context, orderID string) error {
	var cancelled orders.OrderCancelledPayload
	err := l.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		cancelled = orders.OrderCancelledPayload{OrderID: o.ID, ProductID: o.ProductID, Quantity: o.Quantity}

		p, err := tx.GetProduct(ctx, o.ProductID)
		switch {
		case errors.Is(err, orders.ErrNotFound):
		case err != nil:
			return err
		default:
			p.Stock += o.Quantity
			p.UpdatedAt = l.now()
			p.Version++
			if err := tx.SaveProduct(ctx, p); err != nil {
				return err
			}
			cancelled.Restored = true
			cancelled.RemainingStock = p.Stock
			cancelled.StockVersion = p.Version
		}
		return tx.DeleteOrder(ctx, o.ID)
	})
	if err != nil {
		return err
	}

	l.log.Info("order cancelled",
		zap.String("order_id", cancelled.OrderID),
		zap.Int("quantity", cancelled.Quantity),
		zap.Bool("restored", cancelled.Restored))
	l.emit(ctx, orders.EventOrderCancelled, cancelled.OrderID, cancelled)
	return nil
}

func (l *Ledger) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	var o *orders.Order
	err := l.store.InTx(ctx, func(tx Tx) error {
		var err error
		o, err = tx.GetOrder(ctx, orderID)
		return err
	})
	return o, err
}

func (l *Ledger) ListOrders(ctx context.Context, f orders.OrderFilter, s orders.OrderSort) ([]orders.Order, error) {
	var out []orders.Order
	err := l.store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListOrders(ctx, f, s)
		return err
	})
	return out, err
}

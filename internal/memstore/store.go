// Package memstore is an in-process ledger.Store. One mutex is held for the whole
// unit of work, which works on a copy of the data and swaps it in on commit.
package memstore

import (
	"cmp"
	"context"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/google/uuid"
	"maps"
	"slices"
	"sync"
	"time"
)

type Store struct {
	mu       sync.Mutex
	products map[string]orders.Product
	orders   map[string]orders.Order
	seq      map[string]int64 // insertion order, tie-break for equal sort keys
	next     int64
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products: map[string]orders.Product{},
		orders:   map[string]orders.Order{},
		seq:      map[string]int64{},
	}
}

func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		products: maps.Clone(s.products),
		orders:   maps.Clone(s.orders),
		seq:      maps.Clone(s.seq),
		next:     s.next,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.products, s.orders, s.seq, s.next = tx.products, tx.orders, tx.seq, tx.next
	return nil
}

type memTx struct {
	products map[string]orders.Product
	orders   map[string]orders.Order
	seq      map[string]int64
	next     int64
}

func (t *memTx) stamp(id string) {
	t.next++
	t.seq[id] = t.next
}

func (t *memTx) GetProduct(_ context.Context, id string) (*orders.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return nil, orders.ProductNotFound(id)
	}
	return &p, nil
}

func (t *memTx) SaveProduct(_ context.Context, p *orders.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		t.stamp(p.ID)
	} else if _, ok := t.products[p.ID]; !ok {
		return orders.ProductNotFound(p.ID)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	t.products[p.ID] = *p
	return nil
}

func (t *memTx) DeleteProduct(_ context.Context, id string) error {
	if _, ok := t.products[id]; !ok {
		return orders.ProductNotFound(id)
	}
	delete(t.products, id)
	return nil
}

func (t *memTx) ListProducts(_ context.Context) ([]orders.Product, error) {
	out := slices.Collect(maps.Values(t.products))
	slices.SortFunc(out, func(a, b orders.Product) int { return cmp.Compare(t.seq[a.ID], t.seq[b.ID]) })
	return out, nil
}

func (t *memTx) GetOrder(_ context.Context, id string) (*orders.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, orders.OrderNotFound(id)
	}
	return &o, nil
}

func (t *memTx) SaveOrder(_ context.Context, o *orders.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
		if o.CreatedAt.IsZero() {
			o.CreatedAt = time.Now().UTC()
		}
		t.stamp(o.ID)
	} else if _, ok := t.orders[o.ID]; !ok {
		return orders.OrderNotFound(o.ID)
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	t.orders[o.ID] = *o
	return nil
}

func (t *memTx) DeleteOrder(_ context.Context, id string) error {
	if _, ok := t.orders[id]; !ok {
		return orders.OrderNotFound(id)
	}
	delete(t.orders, id)
	return nil
}

func (t *memTx) ListOrders(_ context.Context, f orders.OrderFilter, s orders.OrderSort) ([]orders.Order, error) {
	out := make([]orders.Order, 0, len(t.orders))
	for _, o := range t.orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b orders.Order) int {
		c := compareOrders(a, b, s.Field)
		if s.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(t.seq[a.ID], t.seq[b.ID])
		}
		return c
	})
	return out, nil
}

func compareOrders(a, b orders.Order, field orders.SortField) int {
	switch field {
	case orders.SortTotal:
		return a.Total.Cmp(b.Total)
	case orders.SortQuantity:
		return cmp.Compare(a.Quantity, b.Quantity)
	case orders.SortStatus:
		return cmp.Compare(a.Status, b.Status)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

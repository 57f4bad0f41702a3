package ledger

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"go.uber.org/zap"
	"strings"
)

func (l *Ledger) CreateProduct(ctx context.Context, in orders.NewProduct) (*orders.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := l.now()
	p := &orders.Product{
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		Stock:     in.Stock,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.InTx(ctx, func(tx Tx) error { return tx.SaveProduct(ctx, p) }); err != nil {
		return nil, err
	}
	l.log.Info("product created", zap.String("product_id", p.ID), zap.Int("stock", p.Stock))
	l.emitProduct(ctx, p)
	return p, nil
}

func (l *Ledger) GetProduct(ctx context.Context, id string) (*orders.Product, error) {
	var p *orders.Product
	err := l.store.InTx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.GetProduct(ctx, id)
		return err
	})
	return p, err
}

func (l *Ledger) ListProducts(ctx context.Context) ([]orders.Product, error) {
	var out []orders.Product
	err := l.store.InTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListProducts(ctx)
		return err
	})
	return out, err
}

// UpdateProduct is the administrative edit path: stock set here is taken as-is and
// does not touch existing orders.
func (l *Ledger) UpdateProduct(ctx context.Context, id string, patch orders.ProductPatch) (*orders.Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var p *orders.Product
	err := l.store.InTx(ctx, func(tx Tx) error {
		var err error
		if p, err = tx.GetProduct(ctx, id); err != nil {
			return err
		}
		patch.Apply(p)
		p.UpdatedAt = l.now()
		p.Version++
		return tx.SaveProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("product updated", zap.String("product_id", p.ID), zap.Int("stock", p.Stock))
	l.emitProduct(ctx, p)
	return p, nil
}

// DeleteProduct refuses while any order still references the product.
func (l *Ledger) DeleteProduct(ctx context.Context, id string) error {
	err := l.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetProduct(ctx, id); err != nil {
			return err
		}
		refs, err := tx.ListOrders(ctx, orders.OrderFilter{ProductID: id}, orders.DefaultOrderSort)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return fmt.Errorf("%w: product %s has %d orders", orders.ErrProductInUse, id, len(refs))
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	l.log.Info("product deleted", zap.String("product_id", id))
	l.emit(ctx, orders.EventProductDeleted, id, orders.ProductDeletedPayload{ProductID: id})
	return nil
}

func (l *Ledger) emitProduct(ctx context.Context, p *orders.Product) {
	l.emit(ctx, orders.EventProductChanged, p.ID, orders.ProductChangedPayload{
		ProductID:    p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Stock:        p.Stock,
		StockVersion: p.Version,
	})
}

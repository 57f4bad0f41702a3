package mysql

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

type Store struct{ DB *gorm.DB }

var _ ledger.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct{ db *gorm.DB }

func (t *gormTx) locked(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) GetProduct(ctx context.Context, id string) (*orders.Product, error) {
	var row productRow
	err := t.locked(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.ProductNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	p := row.toProduct()
	return &p, nil
}

func (t *gormTx) SaveProduct(ctx context.Context, p *orders.Product) error {
	db := t.db.WithContext(ctx)
	if p.ID == "" {
		p.ID = uuid.NewString()
		stampNew(&p.CreatedAt, &p.UpdatedAt)
		row := fromProduct(p)
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	}

	res := db.Model(&productRow{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":       p.Name,
		"price":      p.Price,
		"stock":      p.Stock,
		"version":    p.Version,
		"updated_at": p.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update product %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return t.mustExist(ctx, &productRow{}, p.ID, orders.ProductNotFound(p.ID))
	}
	return nil
}

// mustExist tells a missing row apart from an update that changed nothing;
// MySQL reports the latter as zero affected rows too.
func (t *gormTx) mustExist(ctx context.Context, model any, id string, notFound error) error {
	var n int64
	if err := t.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (t *gormTx) DeleteProduct(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(&productRow{})
	if res.Error != nil {
		return fmt.Errorf("delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return orders.ProductNotFound(id)
	}
	return nil
}

func (t *gormTx) ListProducts(ctx context.Context) ([]orders.Product, error) {
	var rows []productRow
	if err := t.db.WithContext(ctx).Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]orders.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toProduct())
	}
	return out, nil
}

func (t *gormTx) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	var row orderRow
	err := t.locked(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.OrderNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	o := row.toOrder()
	return &o, nil
}

func (t *gormTx) SaveOrder(ctx context.Context, o *orders.Order) error {
	db := t.db.WithContext(ctx)
	if o.ID == "" {
		o.ID = uuid.NewString()
		stampNew(&o.CreatedAt, &o.UpdatedAt)
		row := fromOrder(o)
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	}

	res := db.Model(&orderRow{}).Where("id = ?", o.ID).Updates(map[string]any{
		"quantity":      o.Quantity,
		"unit_price":    o.UnitPrice,
		"total":         o.Total,
		"status":        string(o.Status),
		"customer_name": o.Customer.Name,
		"phone":         o.Customer.Phone,
		"account_last5": o.Customer.AccountLast5,
		"shipping":      o.Customer.Shipping,
		"version":       o.Version,
		"updated_at":    o.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update order %s: %w", o.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return t.mustExist(ctx, &orderRow{}, o.ID, orders.OrderNotFound(o.ID))
	}
	return nil
}

func (t *gormTx) DeleteOrder(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(&orderRow{})
	if res.Error != nil {
		return fmt.Errorf("delete order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return orders.OrderNotFound(id)
	}
	return nil
}

func (t *gormTx) ListOrders(ctx context.Context, f orders.OrderFilter, s orders.OrderSort) ([]orders.Order, error) {
	q := t.db.WithContext(ctx).Model(&orderRow{})
	if f.ProductID != "" {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	q = q.Order(sortColumn(s)).Order("created_at").Order("id")

	var rows []orderRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]orders.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toOrder())
	}
	return out, nil
}

func sortColumn(s orders.OrderSort) clause.OrderByColumn {
	name := "created_at"
	switch s.Field {
	case orders.SortTotal, orders.SortQuantity, orders.SortStatus:
		name = string(s.Field)
	}
	return clause.OrderByColumn{Column: clause.Column{Name: name}, Desc: s.Desc}
}

func stampNew(created, updated *time.Time) {
	if created.IsZero() {
		*created = time.Now().UTC()
	}
	if updated.IsZero() {
		*updated = *created
	}
}

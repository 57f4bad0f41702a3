package postgres

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"strings"
	"time"
)

// Store persists the ledger in PostgreSQL. Rows read through a Tx are locked
// FOR UPDATE until the unit of work ends.
type Store struct{ DB *pgxpool.Pool }

var _ ledger.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err // rollback via defer
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

type rowScanner interface {
	Scan(dest ...any) error
}

const productColumns = `id::text, name, price::text, stock, version, created_at, updated_at`

const orderColumns = `id::text, product_id::text, quantity, unit_price::text, total::text, status,
	customer_name, phone, account_last5, shipping, version, created_at, updated_at`

func scanProduct(row rowScanner) (*orders.Product, error) {
	var (
		p     orders.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
	}
	return &p, nil
}

func scanOrder(row rowScanner) (*orders.Order, error) {
	var (
		o                orders.Order
		unitPrice, total string
		status           string
	)
	err := row.Scan(&o.ID, &o.ProductID, &o.Quantity, &unitPrice, &total, &status,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.AccountLast5, &o.Customer.Shipping,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	if o.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, fmt.Errorf("order %s unit price %q: %w", o.ID, unitPrice, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s total %q: %w", o.ID, total, err)
	}
	return &o, nil
}

// validID keeps malformed ids from reaching the uuid cast, where they would surface
// as a syntax error instead of a miss.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (t *pgTx) GetProduct(ctx context.Context, id string) (*orders.Product, error) {
	if !validID(id) {
		return nil, orders.ProductNotFound(id)
	}
	p, err := scanProduct(t.tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1::uuid FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ProductNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (t *pgTx) SaveProduct(ctx context.Context, p *orders.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
		stampNew(&p.CreatedAt, &p.UpdatedAt)
		_, err := t.tx.Exec(ctx, `
			INSERT INTO products(id, name, price, stock, version, created_at, updated_at)
			VALUES ($1::uuid, $2, $3::numeric, $4, $5, $6, $7)`,
			p.ID, p.Name, p.Price.String(), p.Stock, p.Version, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	}

	if !validID(p.ID) {
		return orders.ProductNotFound(p.ID)
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET name = $2, price = $3::numeric, stock = $4, version = $5, updated_at = $6
		WHERE id = $1::uuid`,
		p.ID, p.Name, p.Price.String(), p.Stock, p.Version, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ProductNotFound(p.ID)
	}
	return nil
}

func (t *pgTx) DeleteProduct(ctx context.Context, id string) error {
	if !validID(id) {
		return orders.ProductNotFound(id)
	}
	ct, err := t.tx.Exec(ctx, `DELETE FROM products WHERE id = $1::uuid`, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: product %s", orders.ErrProductInUse, id)
	}
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return orders.ProductNotFound(id)
	}
	return nil
}

func (t *pgTx) ListProducts(ctx context.Context) ([]orders.Product, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []orders.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (t *pgTx) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	if !validID(id) {
		return nil, orders.OrderNotFound(id)
	}
	o, err := scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.OrderNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (t *pgTx) SaveOrder(ctx context.Context, o *orders.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
		stampNew(&o.CreatedAt, &o.UpdatedAt)
		_, err := t.tx.Exec(ctx, `
			INSERT INTO orders(id, product_id, quantity, unit_price, total, status,
				customer_name, phone, account_last5, shipping, version, created_at, updated_at)
			VALUES ($1::uuid, $2::uuid, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13)`,
			o.ID, o.ProductID, o.Quantity, o.UnitPrice.String(), o.Total.String(), string(o.Status),
			o.Customer.Name, o.Customer.Phone, o.Customer.AccountLast5, o.Customer.Shipping,
			o.Version, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	}

	if !validID(o.ID) {
		return orders.OrderNotFound(o.ID)
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders SET quantity = $2, unit_price = $3::numeric, total = $4::numeric, status = $5,
			customer_name = $6, phone = $7, account_last5 = $8, shipping = $9, version = $10, updated_at = $11
		WHERE id = $1::uuid`,
		o.ID, o.Quantity, o.UnitPrice.String(), o.Total.String(), string(o.Status),
		o.Customer.Name, o.Customer.Phone, o.Customer.AccountLast5, o.Customer.Shipping,
		o.Version, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if ct.RowsAffected() != 1 {
		return orders.OrderNotFound(o.ID)
	}
	return nil
}

func (t *pgTx) DeleteOrder(ctx context.Context, id string) error {
	if !validID(id) {
		return orders.OrderNotFound(id)
	}
	ct, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return orders.OrderNotFound(id)
	}
	return nil
}

func (t *pgTx) ListOrders(ctx context.Context, f orders.OrderFilter, s orders.OrderSort) ([]orders.Order, error) {
	if f.ProductID != "" && !validID(f.ProductID) {
		return nil, nil
	}
	where, args := whereClause(f)
	rows, err := t.tx.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+orderByClause(s), args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func whereClause(f orders.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d::uuid", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var sortColumns = map[orders.SortField]string{
	orders.SortCreatedAt: "created_at",
	orders.SortTotal:     "total",
	orders.SortQuantity:  "quantity",
	orders.SortStatus:    "status",
}

// orderByClause only ever emits whitelisted column names.
func orderByClause(s orders.OrderSort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, created_at ASC, id ASC", col, dir)
}

func stampNew(created, updated *time.Time) {
	if created.IsZero() {
		*created = time.Now().UTC()
	}
	if updated.IsZero() {
		*updated = *created
	}
}

package mysql

import (
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/clause"
)

func TestOrderRowRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	o := orders.Order{
		ID:        "o-1",
		ProductID: "p-1",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("12.50"),
		Total:     decimal.RequireFromString("37.50"),
		Status:    orders.StatusPaid,
		Customer:  orders.Customer{Name: "Budi", Phone: "0812", AccountLast5: "12345", Shipping: "JNE"},
		Version:   4,
		CreatedAt: at,
		UpdatedAt: at,
	}

	row := fromOrder(&o)
	assert.Equal(t, "paid", row.Status)
	assert.Equal(t, "Budi", row.CustomerName)
	assert.Equal(t, o, row.toOrder())
}

func TestProductRowRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := orders.Product{ID: "p-1", Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 7, Version: 2, CreatedAt: at, UpdatedAt: at}
	assert.Equal(t, p, fromProduct(&p).toProduct())
}

func TestSortColumn(t *testing.T) {
	assert.Equal(t, clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}, sortColumn(orders.DefaultOrderSort))
	assert.Equal(t, clause.OrderByColumn{Column: clause.Column{Name: "total"}, Desc: true},
		sortColumn(orders.OrderSort{Field: orders.SortTotal, Desc: true}))
	assert.Equal(t, "created_at", sortColumn(orders.OrderSort{Field: "id; drop"}).Column.Name)
}

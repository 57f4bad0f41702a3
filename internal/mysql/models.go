package mysql

import (
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/shopspring/decimal"
	"time"
)

type productRow struct {
	ID        string          `gorm:"column:id;type:char(36);primaryKey"`
	Name      string          `gorm:"column:name;type:varchar(255);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(14,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Version   int64           `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime:false;index"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	ID           string          `gorm:"column:id;type:char(36);primaryKey"`
	ProductID    string          `gorm:"column:product_id;type:char(36);not null;index"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:decimal(14,2);not null"`
	Total        decimal.Decimal `gorm:"column:total;type:decimal(16,2);not null"`
	Status       string          `gorm:"column:status;type:varchar(64);not null;index"`
	CustomerName string          `gorm:"column:customer_name;type:varchar(255);not null"`
	Phone        string          `gorm:"column:phone;type:varchar(32)"`
	AccountLast5 string          `gorm:"column:account_last5;type:varchar(5)"`
	Shipping     string          `gorm:"column:shipping;type:varchar(64)"`
	Version      int64           `gorm:"column:version;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime:false;index"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (orderRow) TableName() string { return "orders" }

func fromProduct(p *orders.Product) productRow {
	return productRow{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r productRow) toProduct() orders.Product {
	return orders.Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Stock:     r.Stock,
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func fromOrder(o *orders.Order) orderRow {
	return orderRow{
		ID:           o.ID,
		ProductID:    o.ProductID,
		Quantity:     o.Quantity,
		UnitPrice:    o.UnitPrice,
		Total:        o.Total,
		Status:       string(o.Status),
		CustomerName: o.Customer.Name,
		Phone:        o.Customer.Phone,
		AccountLast5: o.Customer.AccountLast5,
		Shipping:     o.Customer.Shipping,
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func (r orderRow) toOrder() orders.Order {
	return orders.Order{
		ID:        r.ID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		Total:     r.Total,
		Status:    orders.Status(r.Status),
		Customer: orders.Customer{
			Name:         r.CustomerName,
			Phone:        r.Phone,
			AccountLast5: r.AccountLast5,
			Shipping:     r.Shipping,
		},
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

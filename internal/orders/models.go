package orders

import (
	"github.com/shopspring/decimal"
	"time"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Version   int64           `json:"version"` // naik setiap kali disimpan
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Customer holds the buyer details captured on the order form. Validate bounds each field
// to its column size; the ledger attaches no other meaning to them.
type Customer struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AccountLast5 string `json:"account_last5"`
	Shipping     string `json:"shipping"`
}

type Order struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"` // harga yang dipakai untuk Total saat ini
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	Customer  Customer        `json:"customer"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LineTotal is price * qty, the only way totals are computed.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

type NewProduct struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

func (p NewProduct) Validate() error {
	if err := validName(p.Name); err != nil {
		return err
	}
	if err := validPrice(p.Price); err != nil {
		return err
	}
	return validStock(p.Stock)
}

type PlaceOrderInput struct {
	ProductID string
	Quantity  int
	Customer  Customer
	// Status overrides the ledger default when set.
	Status Status
}

func (in PlaceOrderInput) Validate() error {
	if in.ProductID == "" {
		return invalidf("product id is required")
	}
	if err := validQuantity(in.Quantity); err != nil {
		return err
	}
	if in.Status != "" {
		if _, err := ParseStatus(string(in.Status)); err != nil {
			return err
		}
	}
	return in.Customer.Validate()
}

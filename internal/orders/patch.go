package orders

import (
	"github.com/shopspring/decimal"
	"strings"
)

// ProductPatch lists the only product fields an edit may touch. Nil means unchanged.
type ProductPatch struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock *int             `json:"stock,omitempty"`
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Stock == nil
}

func (p ProductPatch) Validate() error {
	if p.Empty() {
		return invalidf("patch has no fields")
	}
	if p.Name != nil {
		if err := validName(*p.Name); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := validPrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Stock != nil {
		if err := validStock(*p.Stock); err != nil {
			return err
		}
	}
	return nil
}

func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = strings.TrimSpace(*p.Name)
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
}

// OrderPatch lists the mutable order fields. Quantity goes through the stock rules,
// the rest are plain edits.
type OrderPatch struct {
	Quantity     *int    `json:"quantity,omitempty"`
	Status       *string `json:"status,omitempty"`
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	AccountLast5 *string `json:"account_last5,omitempty"`
	Shipping     *string `json:"shipping,omitempty"`
}

func (p OrderPatch) Empty() bool {
	return p.Quantity == nil && p.Status == nil && p.Name == nil &&
		p.Phone == nil && p.AccountLast5 == nil && p.Shipping == nil
}

func (p OrderPatch) Validate() error {
	if p.Empty() {
		return invalidf("patch has no fields")
	}
	if p.Quantity != nil {
		if err := validQuantity(*p.Quantity); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if _, err := ParseStatus(*p.Status); err != nil {
			return err
		}
	}
	checks := []struct {
		v     *string
		check func(string) error
	}{
		{p.Name, validCustomerName},
		{p.Phone, validPhone},
		{p.AccountLast5, validAccountLast5},
		{p.Shipping, validShipping},
	}
	for _, c := range checks {
		if c.v == nil {
			continue
		}
		if err := c.check(*c.v); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDetails copies status and customer fields. Quantity is left to the ledger.
func (p OrderPatch) ApplyDetails(dst *Order) {
	if p.Status != nil {
		s, _ := ParseStatus(*p.Status)
		dst.Status = s
	}
	if p.Name != nil {
		dst.Customer.Name = *p.Name
	}
	if p.Phone != nil {
		dst.Customer.Phone = *p.Phone
	}
	if p.AccountLast5 != nil {
		dst.Customer.AccountLast5 = *p.AccountLast5
	}
	if p.Shipping != nil {
		dst.Customer.Shipping = *p.Shipping
	}
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidf("name is required")
	}
	return nil
}

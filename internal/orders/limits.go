package orders

import (
	"github.com/shopspring/decimal"
	"math"
	"unicode"
	"unicode/utf8"
)

// Column bounds shared by every store: prices NUMERIC(14,2), totals NUMERIC(16,2),
// quantities and stock INTEGER.
const (
	PriceScale  = 2
	MaxQuantity = math.MaxInt32
	MaxStock    = math.MaxInt32

	maxNameLen     = 255
	maxPhoneLen    = 32
	maxShippingLen = 64
	accountDigits  = 5
)

var (
	priceLimit = decimal.New(1, 12) // exclusive
	totalLimit = decimal.New(1, 14) // exclusive
)

func validPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return invalidf("price cannot be negative")
	}
	if !p.Equal(p.Round(PriceScale)) {
		return invalidf("price %s has more than %d decimal places", p, PriceScale)
	}
	if p.GreaterThanOrEqual(priceLimit) {
		return invalidf("price %s exceeds %s", p, priceLimit)
	}
	return nil
}

func validQuantity(q int) error {
	if q <= 0 {
		return invalidf("quantity must be positive, got %d", q)
	}
	if q > MaxQuantity {
		return invalidf("quantity %d exceeds %d", q, MaxQuantity)
	}
	return nil
}

func validStock(s int) error {
	if s < 0 {
		return invalidf("stock cannot be negative")
	}
	if s > MaxStock {
		return invalidf("stock %d exceeds %d", s, MaxStock)
	}
	return nil
}

// CheckTotal rejects totals that no store column can hold.
func CheckTotal(total decimal.Decimal) error {
	if total.GreaterThanOrEqual(totalLimit) {
		return invalidf("order total %s exceeds %s", total, totalLimit)
	}
	return nil
}

func maxLen(field, v string, n int) error {
	if utf8.RuneCountInString(v) > n {
		return invalidf("%s longer than %d characters", field, n)
	}
	return nil
}

func validCustomerName(v string) error { return maxLen("name", v, maxNameLen) }

func validPhone(v string) error { return maxLen("phone", v, maxPhoneLen) }

func validShipping(v string) error { return maxLen("shipping", v, maxShippingLen) }

// validAccountLast5 allows empty, otherwise exactly five digits.
func validAccountLast5(v string) error {
	if v == "" {
		return nil
	}
	if utf8.RuneCountInString(v) != accountDigits {
		return invalidf("account_last5 must be %d digits", accountDigits)
	}
	for _, r := range v {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return invalidf("account_last5 must be %d digits", accountDigits)
		}
	}
	return nil
}

func (c Customer) Validate() error {
	for _, err := range []error{
		validCustomerName(c.Name),
		validPhone(c.Phone),
		validAccountLast5(c.AccountLast5),
		validShipping(c.Shipping),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

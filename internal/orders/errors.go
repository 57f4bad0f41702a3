package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrProductInUse      = errors.New("product is referenced by orders")
)

// StockError carries the shortfall behind an ErrInsufficientStock.
type StockError struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v: product %s requires %d, available %d", ErrInsufficientStock, e.ProductID, e.Required, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

func ProductNotFound(id string) error { return fmt.Errorf("%w: product %s", ErrNotFound, id) }

func OrderNotFound(id string) error { return fmt.Errorf("%w: order %s", ErrNotFound, id) }

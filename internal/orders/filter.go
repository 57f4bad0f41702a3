package orders

import "strings"

type OrderFilter struct {
	ProductID string
	Status    Status
}

func (f OrderFilter) Match(o Order) bool {
	if f.ProductID != "" && o.ProductID != f.ProductID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortTotal     SortField = "total"
	SortQuantity  SortField = "quantity"
	SortStatus    SortField = "status"
)

type OrderSort struct {
	Field SortField
	Desc  bool
}

var DefaultOrderSort = OrderSort{Field: SortCreatedAt}

// ParseOrderSort reads ?sort=<field>&order=asc|desc. Empty input gives DefaultOrderSort.
func ParseOrderSort(field, direction string) (OrderSort, error) {
	s := DefaultOrderSort
	switch SortField(strings.ToLower(field)) {
	case "":
	case SortCreatedAt, SortTotal, SortQuantity, SortStatus:
		s.Field = SortField(strings.ToLower(field))
	default:
		return s, invalidf("unknown sort field %q", field)
	}
	switch strings.ToLower(direction) {
	case "", "asc":
	case "desc":
		s.Desc = true
	default:
		return s, invalidf("unknown sort order %q", direction)
	}
	return s, nil
}

package redisx

import (
	"fmt"
	"time"
)

const (
	// order:{order_id} -> order JSON
	KeyOrder = "order:%s"

	// idem:order:place:{idempotency_key} -> order_id ("pending" while the placement runs)
	KeyIdemOrderPlace = "idem:order:place:%s"

	// order_status:{order_id} -> hash v, status, quantity, total (gone=1 once cancelled)
	KeyOrderStatus = "order_status:%s"

	// product_stock:{product_id} -> hash v, stock (gone=1 once deleted)
	KeyProductStock = "product_stock:%s"

	// set of product ids at or below the low-stock threshold
	KeyLowStock = "products:low_stock"

	// dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache  = 5 * time.Minute
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

func Key(format string, args ...any) string { return fmt.Sprintf(format, args...) }

package ledger

import (
	"context"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
)

// Store is the persistence collaborator. Every read-check-write the ledger performs
// runs inside a single InTx call; an error returned from fn rolls the unit back.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is one unit of work. GetProduct and GetOrder lock the row until the unit ends,
// so two units touching the same product or order serialize.
type Tx interface {
	GetProduct(ctx context.Context, id string) (*orders.Product, error)
	// SaveProduct inserts when p.ID is empty (assigning ID and timestamps), updates otherwise.
	SaveProduct(ctx context.Context, p *orders.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]orders.Product, error)

	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	SaveOrder(ctx context.Context, o *orders.Order) error
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, f orders.OrderFilter, s orders.OrderSort) ([]orders.Order, error)
}

// Publisher receives ledger events after the unit of work committed.
type Publisher interface {
	Publish(ctx context.Context, topic string, env orders.Envelope) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, orders.Envelope) error { return nil }

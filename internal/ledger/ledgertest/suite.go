// Package ledgertest is the behaviour every ledger.Store has to share. The memory
// store runs it in unit tests; the SQL stores run it when a database DSN is given.
package ledgertest

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

// Run executes the suite. newStore must return an empty store for every call.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Run("ConcurrentPlacementNeverOversells", func(t *testing.T) { concurrentPlacement(t, newStore(t)) })
	t.Run("ConcurrentSingleUnits", func(t *testing.T) { concurrentSingleUnits(t, newStore(t)) })
	t.Run("ConcurrentCancelRestoresOnce", func(t *testing.T) { concurrentCancel(t, newStore(t)) })
	t.Run("VersionsPersist", func(t *testing.T) { versionsPersist(t, newStore(t)) })
}

func seed(t *testing.T, l *ledger.Ledger, stock int) *orders.Product {
	t.Helper()
	p, err := l.CreateProduct(context.Background(), orders.NewProduct{
		Name:  "Gula Aren",
		Price: decimal.RequireFromString("12.50"),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func stock(t *testing.T, l *ledger.Ledger, id string) int {
	t.Helper()
	p, err := l.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// parallel starts n calls of fn at once and returns their errors.
func parallel(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func concurrentPlacement(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := ledger.New(s)
	p := seed(t, l, 5)

	errs := parallel(2, func(int) error {
		_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
		return err
	})

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, orders.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 2, stock(t, l, p.ID))

	list, err := l.ListOrders(ctx, orders.OrderFilter{ProductID: p.ID}, orders.DefaultOrderSort)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func concurrentSingleUnits(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := ledger.New(s)
	p := seed(t, l, 5)

	errs := parallel(8, func(int) error {
		_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
		return err
	})
	placed := 0
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		require.ErrorIs(t, err, orders.ErrInsufficientStock)
	}
	assert.Equal(t, 5, placed)
	assert.Equal(t, 0, stock(t, l, p.ID))
}

func concurrentCancel(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := ledger.New(s)
	p := seed(t, l, 5)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, 2, stock(t, l, p.ID))

	errs := parallel(2, func(int) error { return l.CancelOrder(ctx, o.ID) })

	var ok, gone int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, orders.ErrNotFound):
			gone++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, gone)
	assert.Equal(t, 5, stock(t, l, p.ID), "stock is restored exactly once")
}

func versionsPersist(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := ledger.New(s)
	p := seed(t, l, 5)
	assert.Equal(t, int64(1), p.Version)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = l.ChangeOrderStatus(ctx, o.ID, "paid")
	require.NoError(t, err)

	got, err := l.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	prod, err := l.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), prod.Version)
}

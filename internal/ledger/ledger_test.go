package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-ledger/internal/ledger"
	"github.com/ariefcatur/go-inventory-ledger/internal/memstore"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, env orders.Envelope) error {
	args := m.Called(ctx, topic, env)
	return args.Error(0)
}

// recorder keeps every published envelope for assertions on payloads.
type recorder struct {
	mu     sync.Mutex
	topics []string
	envs   []orders.Envelope
}

func (r *recorder) Publish(_ context.Context, topic string, env orders.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.envs = append(r.envs, env)
	return nil
}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	opts = append([]ledger.Option{ledger.WithClock(func() time.Time { return fixedNow })}, opts...)
	return ledger.New(memstore.New(), opts...)
}

func seedProduct(t *testing.T, l *ledger.Ledger, price string, stock int) *orders.Product {
	t.Helper()
	p, err := l.CreateProduct(context.Background(), orders.NewProduct{
		Name:  "Oolong",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func stockOf(t *testing.T, l *ledger.Ledger, id string) int {
	t.Helper()
	p, err := l.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "100", 10)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{
		ProductID: p.ID,
		Quantity:  3,
		Customer:  orders.Customer{Name: "Lin", Phone: "0912345678", AccountLast5: "12345", Shipping: "7-11"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(300)), "total %s", o.Total)
	assert.True(t, o.UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, orders.StatusUnpaid, o.Status)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Equal(t, "Lin", o.Customer.Name)
	assert.Equal(t, 7, stockOf(t, l, p.ID))

	require.NoError(t, l.CancelOrder(ctx, o.ID))
	assert.Equal(t, 10, stockOf(t, l, p.ID))
	_, err = l.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestPlaceOrder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		product string
		wantErr error
	}{
		{name: "zero quantity", qty: 0, wantErr: orders.ErrInvalidArgument},
		{name: "negative quantity", qty: -1, wantErr: orders.ErrInvalidArgument},
		{name: "more than stock", qty: 6, wantErr: orders.ErrInsufficientStock},
		{name: "unknown product", qty: 1, product: "nope", wantErr: orders.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t)
			p := seedProduct(t, l, "2.50", 5)
			id := p.ID
			if tt.product != "" {
				id = tt.product
			}

			o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: id, Quantity: tt.qty})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, o)
			assert.Equal(t, 5, stockOf(t, l, p.ID))

			list, err := l.ListOrders(ctx, orders.OrderFilter{}, orders.DefaultOrderSort)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestPlaceOrder_StockErrorDetails(t *testing.T) {
	l := newLedger(t)
	p := seedProduct(t, l, "1", 2)

	_, err := l.PlaceOrder(context.Background(), orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
	var se *orders.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, orders.StockError{ProductID: p.ID, Required: 3, Available: 2}, *se)
}

func TestPlaceOrder_ExactStock(t *testing.T) {
	l := newLedger(t)
	p := seedProduct(t, l, "1", 4)
	_, err := l.PlaceOrder(context.Background(), orders.PlaceOrderInput{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, l, p.ID))
}

func TestPlaceOrder_TotalIsSnapshot(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "100", 10)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	price := decimal.NewFromInt(150)
	_, err = l.UpdateProduct(ctx, p.ID, orders.ProductPatch{Price: &price})
	require.NoError(t, err)

	got, err := l.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(200)), "total %s", got.Total)
}

func TestPlaceOrder_ConcurrentOversell(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "10", 5)

	var (
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
			} else {
				succeeded++
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, succeeded)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], orders.ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, l, p.ID))
}

func TestPlaceOrder_ManyConcurrentNeverNegative(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "1", 50)

	var g errgroup.Group
	for i := 0; i < 80; i++ {
		g.Go(func() error {
			_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
			if err != nil && !errors.Is(err, orders.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 0, stockOf(t, l, p.ID))
	list, err := l.ListOrders(ctx, orders.OrderFilter{ProductID: p.ID}, orders.DefaultOrderSort)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestReviseOrderQuantity(t *testing.T) {
	tests := []struct {
		name      string
		newQty    int
		wantErr   error
		wantStock int
		wantTotal int64
	}{
		{name: "increase", newQty: 5, wantStock: 5, wantTotal: 500},
		{name: "decrease", newQty: 1, wantStock: 9, wantTotal: 100},
		{name: "same", newQty: 3, wantStock: 7, wantTotal: 300},
		{name: "increase to all stock", newQty: 10, wantStock: 0, wantTotal: 1000},
		{name: "increase past stock", newQty: 11, wantErr: orders.ErrInsufficientStock, wantStock: 7, wantTotal: 300},
		{name: "zero", newQty: 0, wantErr: orders.ErrInvalidArgument, wantStock: 7, wantTotal: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t)
			p := seedProduct(t, l, "100", 10)
			o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
			require.NoError(t, err)

			_, err = l.ReviseOrderQuantity(ctx, o.ID, tt.newQty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			got, err := l.GetOrder(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, stockOf(t, l, p.ID))
			assert.True(t, got.Total.Equal(decimal.NewFromInt(tt.wantTotal)), "total %s", got.Total)
		})
	}
}

func TestReviseThenCancel_RestoresLatestQuantity(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "100", 10)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = l.ReviseOrderQuantity(ctx, o.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, stockOf(t, l, p.ID))

	require.NoError(t, l.CancelOrder(ctx, o.ID))
	assert.Equal(t, 10, stockOf(t, l, p.ID))
}

func TestReviseOrderQuantity_PricingPolicy(t *testing.T) {
	for _, reprice := range []bool{true, false} {
		ctx := context.Background()
		l := newLedger(t, ledger.WithRepriceOnRevise(reprice))
		p := seedProduct(t, l, "100", 10)
		o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 2})
		require.NoError(t, err)

		price := decimal.NewFromInt(120)
		_, err = l.UpdateProduct(ctx, p.ID, orders.ProductPatch{Price: &price})
		require.NoError(t, err)

		got, err := l.ReviseOrderQuantity(ctx, o.ID, 3)
		require.NoError(t, err)
		if reprice {
			assert.True(t, got.Total.Equal(decimal.NewFromInt(360)), "reprice total %s", got.Total)
			assert.True(t, got.UnitPrice.Equal(price))
		} else {
			assert.True(t, got.Total.Equal(decimal.NewFromInt(300)), "snapshot total %s", got.Total)
			assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(100)))
		}
	}
}

func TestReviseOrderQuantity_ProductGone(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	l := ledger.New(store)
	p := seedProduct(t, l, "5", 10)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	// Bypass the ledger's delete guard to simulate a product removed by another path.
	require.NoError(t, store.InTx(ctx, func(tx ledger.Tx) error { return tx.DeleteProduct(ctx, p.ID) }))

	_, err = l.ReviseOrderQuantity(ctx, o.ID, 2)
	assert.ErrorIs(t, err, orders.ErrNotFound)

	// Cancelling still succeeds and skips the restore.
	rec := &recorder{}
	l = ledger.New(store, ledger.WithPublisher(rec))
	require.NoError(t, l.CancelOrder(ctx, o.ID))
	require.Len(t, rec.envs, 1)
	var payload orders.OrderCancelledPayload
	require.NoError(t, json.Unmarshal(rec.envs[0].Payload, &payload))
	assert.False(t, payload.Restored)
}

func TestCancelOrder_Twice(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "1", 10)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)

	require.NoError(t, l.CancelOrder(ctx, o.ID))
	assert.ErrorIs(t, l.CancelOrder(ctx, o.ID), orders.ErrNotFound)
	assert.Equal(t, 10, stockOf(t, l, p.ID))
}

func TestCancelOrder_ConcurrentRestoresOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "1", 10)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)

	var (
		g        errgroup.Group
		mu       sync.Mutex
		okCount  int
		notFound int
	)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			err := l.CancelOrder(ctx, o.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, orders.ErrNotFound):
				notFound++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 7, notFound)
	assert.Equal(t, 10, stockOf(t, l, p.ID))
}

func TestChangeOrderStatus(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "100", 10)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	got, err := l.ChangeOrderStatus(ctx, o.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, got.Status)
	assert.True(t, got.Total.Equal(o.Total))
	assert.Equal(t, 8, stockOf(t, l, p.ID))

	// Any label may follow any other.
	got, err = l.ChangeOrderStatus(ctx, o.ID, "unpaid")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusUnpaid, got.Status)

	_, err = l.ChangeOrderStatus(ctx, "missing", "paid")
	assert.ErrorIs(t, err, orders.ErrNotFound)
	_, err = l.ChangeOrderStatus(ctx, o.ID, " ")
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)
}

func TestUpdateOrder_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "10", 5)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	qty, status, phone := 9, "paid", "0999"
	_, err = l.UpdateOrder(ctx, o.ID, orders.OrderPatch{Quantity: &qty, Status: &status, Phone: &phone})
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)

	got, err := l.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusUnpaid, got.Status)
	assert.Equal(t, "", got.Customer.Phone)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, 3, stockOf(t, l, p.ID))

	qty = 4
	got, err = l.UpdateOrder(ctx, o.ID, orders.OrderPatch{Quantity: &qty, Status: &status, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, got.Status)
	assert.Equal(t, "0999", got.Customer.Phone)
	assert.Equal(t, 1, stockOf(t, l, p.ID))
}

func TestDefaultStatusOption(t *testing.T) {
	l := newLedger(t, ledger.WithDefaultStatus("尚未匯款"))
	p := seedProduct(t, l, "1", 1)
	o, err := l.PlaceOrder(context.Background(), orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, orders.Status("尚未匯款"), o.Status)
}

func TestProducts(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	_, err := l.CreateProduct(ctx, orders.NewProduct{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)

	p := seedProduct(t, l, "9.90", 3)
	stock := 20
	got, err := l.UpdateProduct(ctx, p.ID, orders.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 20, got.Stock)

	neg := -1
	_, err = l.UpdateProduct(ctx, p.ID, orders.ProductPatch{Stock: &neg})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)
	_, err = l.UpdateProduct(ctx, "missing", orders.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, orders.ErrNotFound)

	list, err := l.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Oolong", list[0].Name)
}

func TestDeleteProduct_ForbiddenWhileReferenced(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "1", 10)
	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, l.DeleteProduct(ctx, p.ID), orders.ErrProductInUse)

	require.NoError(t, l.CancelOrder(ctx, o.ID))
	require.NoError(t, l.DeleteProduct(ctx, p.ID))
	_, err = l.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, orders.ErrNotFound)
	assert.ErrorIs(t, l.DeleteProduct(ctx, p.ID), orders.ErrNotFound)
}

func TestEvents(t *testing.T) {
	ctx := ledger.WithTraceID(context.Background(), "req-1")
	rec := &recorder{}
	l := newLedger(t, ledger.WithPublisher(rec), ledger.WithProducer("test-svc"))
	p := seedProduct(t, l, "100", 10)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = l.ReviseOrderQuantity(ctx, o.ID, 4)
	require.NoError(t, err)
	_, err = l.ChangeOrderStatus(ctx, o.ID, "paid")
	require.NoError(t, err)
	require.NoError(t, l.CancelOrder(ctx, o.ID))

	assert.Equal(t, []string{
		orders.TopicProductChanged,
		orders.TopicOrderPlaced,
		orders.TopicOrderRevised,
		orders.TopicOrderStatusChanged,
		orders.TopicOrderCancelled,
	}, rec.topics)

	placed := rec.envs[1]
	assert.Equal(t, orders.EventOrderPlaced, placed.EventType)
	assert.Equal(t, "test-svc", placed.Producer)
	assert.Equal(t, "req-1", placed.TraceID)
	assert.Equal(t, o.ID, placed.CorrelationID)
	assert.Equal(t, 1, placed.EventVersion)

	var pp orders.OrderPlacedPayload
	require.NoError(t, json.Unmarshal(placed.Payload, &pp))
	assert.Equal(t, 7, pp.RemainingStock)
	assert.True(t, pp.Total.Equal(decimal.NewFromInt(300)))

	var rp orders.OrderRevisedPayload
	require.NoError(t, json.Unmarshal(rec.envs[2].Payload, &rp))
	assert.Equal(t, 3, rp.OldQuantity)
	assert.Equal(t, 4, rp.NewQuantity)
	assert.Equal(t, 6, rp.RemainingStock)

	var cp orders.OrderCancelledPayload
	require.NoError(t, json.Unmarshal(rec.envs[4].Payload, &cp))
	assert.True(t, cp.Restored)
	assert.Equal(t, 10, cp.RemainingStock)

	// every save bumps the row version carried on the event
	var sp orders.OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(rec.envs[3].Payload, &sp))
	assert.Equal(t, int64(1), pp.OrderVersion)
	assert.Equal(t, int64(2), rp.OrderVersion)
	assert.Equal(t, int64(3), sp.OrderVersion)
	assert.Equal(t, int64(2), pp.StockVersion)
	assert.Equal(t, int64(3), rp.StockVersion)
	assert.Equal(t, int64(4), cp.StockVersion)
}

func TestPrices_MoreThanTwoDecimalsRejected(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	_, err := l.CreateProduct(ctx, orders.NewProduct{Name: "x", Price: decimal.RequireFromString("1.005"), Stock: 1})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)

	p := seedProduct(t, l, "1.50", 5)
	price := decimal.RequireFromString("2.125")
	_, err = l.UpdateProduct(ctx, p.ID, orders.ProductPatch{Price: &price})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)

	price = decimal.RequireFromString("2.100")
	got, err := l.UpdateProduct(ctx, p.ID, orders.ProductPatch{Price: &price})
	require.NoError(t, err, "trailing zeros are still two places")
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2.1")))
}

func TestTotalsBeyondColumnRange(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "999999999999.99", 1000)

	_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 500})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)
	assert.Equal(t, 1000, stockOf(t, l, p.ID))

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = l.ReviseOrderQuantity(ctx, o.ID, 200)
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)
	assert.Equal(t, 999, stockOf(t, l, p.ID))
	got, err := l.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

func TestCustomerFieldsBounded(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := seedProduct(t, l, "1", 5)

	_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1, Customer: orders.Customer{AccountLast5: "12a"}})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	long := strings.Repeat("9", 33)
	_, err = l.UpdateOrder(ctx, o.ID, orders.OrderPatch{Phone: &long})
	assert.ErrorIs(t, err, orders.ErrInvalidArgument)
	assert.Equal(t, 4, stockOf(t, l, p.ID))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, orders.TopicProductChanged, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, orders.TopicOrderPlaced, mock.AnythingOfType("orders.Envelope")).
		Return(errors.New("broker down"))

	l := newLedger(t, ledger.WithPublisher(pub))
	p := seedProduct(t, l, "1", 5)

	o, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.NotNil(t, o)
	assert.Equal(t, 3, stockOf(t, l, p.ID))
	pub.AssertExpectations(t)
}

func TestFailedOperationsPublishNothing(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, orders.TopicProductChanged, mock.Anything).Return(nil).Once()

	l := newLedger(t, ledger.WithPublisher(pub))
	p := seedProduct(t, l, "1", 1)

	_, err := l.PlaceOrder(ctx, orders.PlaceOrderInput{ProductID: p.ID, Quantity: 2})
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)
	assert.ErrorIs(t, l.CancelOrder(ctx, "missing"), orders.ErrNotFound)

	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

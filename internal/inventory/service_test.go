package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/lock"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureNotifier) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Topic)
	}
	return out
}

func seedProduct(id string, quantity int) catalog.Product {
	price := decimal.NewFromInt(1000)
	return catalog.Product{
		ID:           id,
		Brand:        "PUMA",
		Category:     "SHOES",
		BasePrice:    price,
		CurrentPrice: price,
		FloorPrice:   decimal.NewFromInt(800),
		Quantity:     quantity,
	}
}

func newService(t *testing.T, products ...catalog.Product) (*inventory.Service, *catalog.MemoryStore) {
	t.Helper()
	store := catalog.NewMemoryStore()
	for _, p := range products {
		require.NoError(t, store.Upsert(context.Background(), p))
	}
	svc := &inventory.Service{Store: store, Locks: lock.NewKeyed()}
	return svc, store
}

func quantityOf(t *testing.T, store *catalog.MemoryStore, id string) int {
	t.Helper()
	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func TestReserveDecrementsStock(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 10), seedProduct("2", 5))
	err := svc.Reserve(context.Background(), []inventory.Line{
		{ProductID: "1", Quantity: 2},
		{ProductID: "2", Quantity: 5},
	})
	require.NoError(t, err)
	require.Equal(t, 8, quantityOf(t, store, "1"))
	require.Equal(t, 0, quantityOf(t, store, "2"))
}

func TestReserveAtomicOnInsufficiency(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 10), seedProduct("2", 1))
	err := svc.Reserve(context.Background(), []inventory.Line{
		{ProductID: "1", Quantity: 2},
		{ProductID: "2", Quantity: 3},
	})
	var stock catalog.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	require.Equal(t, "2", stock.ProductID)
	require.Equal(t, 10, quantityOf(t, store, "1"), "no partial decrement")
	require.Equal(t, 1, quantityOf(t, store, "2"))
}

func TestReserveAggregatesDuplicateLines(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 10))

	err := svc.Reserve(context.Background(), []inventory.Line{
		{ProductID: "1", Quantity: 6},
		{ProductID: "1", Quantity: 5},
	})
	var stock catalog.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	require.Equal(t, 11, stock.Requested)
	require.Equal(t, 10, quantityOf(t, store, "1"))

	require.NoError(t, svc.Reserve(context.Background(), []inventory.Line{
		{ProductID: "1", Quantity: 5},
		{ProductID: "1", Quantity: 5},
	}))
	require.Equal(t, 0, quantityOf(t, store, "1"))
}

func TestReserveUnknownProduct(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 10))
	err := svc.Reserve(context.Background(), []inventory.Line{
		{ProductID: "1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})
	var notFound catalog.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "ghost", notFound.ID)
	require.Equal(t, 10, quantityOf(t, store, "1"))
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newService(t, seedProduct("1", 10))
	require.Error(t, svc.Reserve(context.Background(), []inventory.Line{{ProductID: "1", Quantity: 0}}))
	require.Error(t, svc.Reserve(context.Background(), []inventory.Line{{ProductID: "", Quantity: 1}}))
}

func TestReleaseRestoresStock(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 10))
	lines := []inventory.Line{{ProductID: "1", Quantity: 4}}

	require.NoError(t, svc.Reserve(context.Background(), lines))
	require.Equal(t, 6, quantityOf(t, store, "1"))

	svc.Release(context.Background(), lines)
	require.Equal(t, 10, quantityOf(t, store, "1"))
}

func TestReleaseSkipsMissingProducts(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 6))
	svc.Release(context.Background(), []inventory.Line{
		{ProductID: "ghost", Quantity: 2},
		{ProductID: "1", Quantity: 4},
	})
	require.Equal(t, 10, quantityOf(t, store, "1"))
}

func TestReleaseSurvivesCancelledContext(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 6))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Release(ctx, []inventory.Line{{ProductID: "1", Quantity: 4}})
	require.Equal(t, 10, quantityOf(t, store, "1"))
}

func TestReserveConcurrentNoOversell(t *testing.T) {
	svc, store := newService(t, seedProduct("1", 5))

	// Outcomes are collected here and checked after the wait; require must
	// not run off the test goroutine.
	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	var unexpected []error
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Reserve(context.Background(), []inventory.Line{{ProductID: "1", Quantity: 1}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				reserved++
				return
			}
			var stock catalog.InsufficientStockError
			if !errors.As(err, &stock) {
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected, "only insufficient-stock failures are expected")
	require.Equal(t, 5, reserved)
	require.Equal(t, 0, quantityOf(t, store, "1"))
}

func TestReserveAndReleaseEmitEvents(t *testing.T) {
	capture := &captureNotifier{}
	svc, _ := newService(t, seedProduct("1", 10))
	svc.Events = &events.Bus{Notifiers: []events.Notifier{capture}}

	lines := []inventory.Line{{ProductID: "1", Quantity: 2}}
	require.NoError(t, svc.Reserve(context.Background(), lines))
	svc.Release(context.Background(), lines)

	require.Equal(t, []string{events.TopicStockReserved, events.TopicStockReleased}, capture.topics())
}

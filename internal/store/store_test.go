package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"

	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/notify"
	"github.com/utafrali/storefront-cart/internal/repository/memory"
)

// --- Fakes ---

type fakeStock struct {
	mu      sync.Mutex
	amounts map[int]int
	errs    map[int]error
	calls   int
	gate    chan struct{}
}

func newFakeStock(amounts map[int]int) *fakeStock {
	return &fakeStock{amounts: amounts, errs: map[int]error{}}
}

func (f *fakeStock) Stock(ctx context.Context, productID int) (domain.StockRecord, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	err := f.errs[productID]
	amount, ok := f.amounts[productID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.StockRecord{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.StockRecord{}, err
	}
	if !ok {
		return domain.StockRecord{}, apperrors.NotFound("stock", fmt.Sprint(productID))
	}
	return domain.StockRecord{ProductID: productID, Available: amount}, nil
}

func (f *fakeStock) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCatalog struct {
	err error
}

func (f *fakeCatalog) Product(_ context.Context, productID int) (domain.Product, error) {
	if f.err != nil {
		return domain.Product{}, f.err
	}
	return domain.ParseProduct(productID, fmt.Appendf(nil,
		`{"title":"Tênis %d","price":179.9,"image":"https://cdn.example.com/%d.jpg"}`, productID, productID))
}

type flakyStorage struct {
	*memory.CartStorage
	mu      sync.Mutex
	saveErr error
	loadErr error
	saves   int
}

func (f *flakyStorage) Load(ctx context.Context) (*domain.Cart, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.CartStorage.Load(ctx)
}

func (f *flakyStorage) Save(ctx context.Context, cart *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return f.CartStorage.Save(ctx, cart)
}

// --- Helpers ---

type harness struct {
	store    *CartStore
	stock    *fakeStock
	catalog  *fakeCatalog
	storage  *flakyStorage
	recorder *notify.Recorder
	metrics  *Metrics
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newHarness(t *testing.T, stock map[int]int, boundary domain.StockBoundary) *harness {
	t.Helper()
	h := &harness{
		stock:    newFakeStock(stock),
		catalog:  &fakeCatalog{},
		storage:  &flakyStorage{CartStorage: memory.NewCartStorage()},
		recorder: notify.NewRecorder(20),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	h.store = NewCartStore(h.storage, h.stock, h.catalog, h.recorder, newTestLogger(), Options{
		Boundary: boundary,
		Metrics:  h.metrics,
	})
	h.store.Initialize(context.Background())
	return h
}

func amounts(c *domain.Cart) map[int]int {
	out := make(map[int]int, len(c.Items))
	for _, item := range c.Items {
		out[item.ID] = item.Amount
	}
	return out
}

func (h *harness) lastNotification(t *testing.T) notify.Notification {
	t.Helper()
	recent := h.recorder.Recent()
	require.NotEmpty(t, recent, "expected a notification")
	return recent[0]
}

func (h *harness) stored(t *testing.T) *domain.Cart {
	t.Helper()
	c, err := h.storage.CartStorage.Load(context.Background())
	require.NoError(t, err)
	return c
}

// --- AddProduct ---

func TestAddProduct_NewProductWithStock(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")

	require.NoError(t, h.store.AddProduct(context.Background(), 1))

	cart := h.store.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].ID)
	assert.Equal(t, 1, cart.Items[0].Amount)
	assert.Equal(t, "Tênis 1", cart.Items[0].Title())
	assert.Equal(t, map[int]int{1: 1}, amounts(h.stored(t)))
	assert.Empty(t, h.recorder.Recent())
}

func TestAddProduct_ExistingIncrementsAndRechecksStock(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()

	require.NoError(t, h.store.AddProduct(ctx, 1))
	require.NoError(t, h.store.AddProduct(ctx, 1))

	assert.Equal(t, map[int]int{1: 2}, amounts(h.store.Cart()))
	assert.Equal(t, 2, h.stock.callCount())
}

func TestAddProduct_ExistingAtStockLimit(t *testing.T) {
	h := newHarness(t, map[int]int{1: 1}, "")
	ctx := context.Background()

	require.NoError(t, h.store.AddProduct(ctx, 1))
	err := h.store.AddProduct(ctx, 1)

	require.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
	n := h.lastNotification(t)
	assert.Equal(t, notify.KindOutOfStock, n.Kind)
	assert.Equal(t, notify.MsgOutOfStock, n.Message)
}

func TestAddProduct_ZeroStock(t *testing.T) {
	h := newHarness(t, map[int]int{2: 0}, "")

	err := h.store.AddProduct(context.Background(), 2)

	require.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Equal(t, 0, h.store.Cart().Len())
	assert.Equal(t, 0, h.storage.saves)
	assert.Equal(t, notify.KindOutOfStock, h.lastNotification(t).Kind)
}

func TestAddProduct_LookupFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		wantErr error
	}{
		{
			name:    "stock not found",
			setup:   func(h *harness) {},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name: "stock network failure",
			setup: func(h *harness) {
				h.stock.errs[9] = apperrors.NetworkFailure("stock service", errors.New("connection refused"))
			},
			wantErr: apperrors.ErrNetworkFailure,
		},
		{
			name: "catalog not found",
			setup: func(h *harness) {
				h.stock.amounts[9] = 3
				h.catalog.err = apperrors.NotFound("product", "9")
			},
			wantErr: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, map[int]int{}, "")
			tt.setup(h)

			err := h.store.AddProduct(context.Background(), 9)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, h.store.Cart().Len())
			assert.Equal(t, 0, h.storage.saves)
			n := h.lastNotification(t)
			assert.Equal(t, notify.KindAddFailed, n.Kind)
			assert.Equal(t, notify.MsgAddFailed, n.Message)
			assert.Equal(t, 9, n.ProductID)
		})
	}
}

func TestAddProduct_ExistingLookupFailureUsesAddMessage(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	h.stock.errs[1] = apperrors.NetworkFailure("stock service", errors.New("timeout"))
	err := h.store.AddProduct(ctx, 1)

	require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	assert.Equal(t, notify.MsgAddFailed, h.lastNotification(t).Message)
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
}

// --- RemoveProduct ---

func TestRemoveProduct_Present(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5, 2: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))
	require.NoError(t, h.store.AddProduct(ctx, 2))

	require.NoError(t, h.store.RemoveProduct(ctx, 1))

	assert.Equal(t, map[int]int{2: 1}, amounts(h.store.Cart()))
	assert.Equal(t, map[int]int{2: 1}, amounts(h.stored(t)))
}

func TestRemoveProduct_Absent(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))
	saves := h.storage.saves

	err := h.store.RemoveProduct(ctx, 42)

	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
	assert.Equal(t, saves, h.storage.saves)
	n := h.lastNotification(t)
	assert.Equal(t, notify.KindRemoveFailed, n.Kind)
	assert.Equal(t, notify.MsgRemoveFailed, n.Message)
}

// --- UpdateProductAmount ---

func TestUpdateProductAmount_NonPositiveIsNoop(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))
	calls := h.stock.callCount()

	for _, amount := range []int{0, -1} {
		require.NoError(t, h.store.UpdateProductAmount(ctx, 1, amount))
	}

	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
	assert.Equal(t, calls, h.stock.callCount())
	assert.Empty(t, h.recorder.Recent())
	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.operations.WithLabelValues(opUpdate, outcomeNoop)))
}

func TestUpdateProductAmount_WithinStock(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	require.NoError(t, h.store.UpdateProductAmount(ctx, 1, 4))

	assert.Equal(t, map[int]int{1: 4}, amounts(h.store.Cart()))
	assert.Equal(t, map[int]int{1: 4}, amounts(h.stored(t)))
}

func TestUpdateProductAmount_ExceedsStock(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	err := h.store.UpdateProductAmount(ctx, 1, 6)

	require.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
	assert.Equal(t, notify.KindOutOfStock, h.lastNotification(t).Kind)
}

func TestUpdateProductAmount_Boundary(t *testing.T) {
	tests := []struct {
		boundary domain.StockBoundary
		wantErr  bool
	}{
		{domain.BoundaryInclusive, false},
		{domain.BoundaryExclusive, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.boundary), func(t *testing.T) {
			h := newHarness(t, map[int]int{1: 5}, tt.boundary)
			ctx := context.Background()
			require.NoError(t, h.store.AddProduct(ctx, 1))

			err := h.store.UpdateProductAmount(ctx, 1, 5)

			if tt.wantErr {
				require.ErrorIs(t, err, apperrors.ErrOutOfStock)
				assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
			} else {
				require.NoError(t, err)
				assert.Equal(t, map[int]int{1: 5}, amounts(h.store.Cart()))
			}
		})
	}
}

func TestUpdateProductAmount_AbsentProduct(t *testing.T) {
	h := newHarness(t, map[int]int{7: 5}, "")

	err := h.store.UpdateProductAmount(context.Background(), 7, 2)

	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, h.store.Cart().Len())
	assert.Equal(t, 0, h.stock.callCount())
	n := h.lastNotification(t)
	assert.Equal(t, notify.KindUpdateFailed, n.Kind)
	assert.Equal(t, notify.MsgUpdateFailed, n.Message)
}

func TestUpdateProductAmount_LookupFailure(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	h.stock.errs[1] = apperrors.NetworkFailure("stock service", errors.New("reset"))
	err := h.store.UpdateProductAmount(ctx, 1, 2)

	require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	assert.Equal(t, notify.MsgUpdateFailed, h.lastNotification(t).Message)
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
}

// --- Commit ---

func TestCommit_StorageFailureLeavesCartUnchanged(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5, 2: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	var published int
	h.store.Subscribe(func(context.Context, *domain.Cart) { published++ })

	h.storage.saveErr = errors.New("disk full")

	assert.Error(t, h.store.AddProduct(ctx, 2))
	assert.Error(t, h.store.UpdateProductAmount(ctx, 1, 3))
	assert.Error(t, h.store.RemoveProduct(ctx, 1))
	err := h.store.Clear(ctx)
	require.Error(t, err)
	assert.Equal(t, "save cart: disk full", err.Error())

	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
	assert.Equal(t, map[int]int{1: 1}, amounts(h.stored(t)))
	assert.Zero(t, published)
}

func TestClear(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5, 2: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))
	require.NoError(t, h.store.AddProduct(ctx, 2))

	require.NoError(t, h.store.Clear(ctx))

	assert.Equal(t, 0, h.store.Cart().Len())
	assert.Equal(t, 0, h.stored(t).Len())
}

// --- Initialize ---

func TestInitialize_RestoresPersistedCart(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5, 3: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 3))
	require.NoError(t, h.store.AddProduct(ctx, 1))
	require.NoError(t, h.store.UpdateProductAmount(ctx, 3, 2))
	want := h.store.Cart()

	restored := NewCartStore(h.storage, h.stock, h.catalog, h.recorder, newTestLogger(), Options{})
	restored.Initialize(ctx)

	assert.Equal(t, want, restored.Cart())
}

func TestInitialize_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *flakyStorage)
	}{
		{"nothing stored", func(*flakyStorage) {}},
		{"undecodable", func(s *flakyStorage) { s.SetRaw([]byte("not json")) }},
		{"duplicate ids", func(s *flakyStorage) { s.SetRaw([]byte(`[{"id":1,"amount":1},{"id":1,"amount":1}]`)) }},
		{"zero quantity", func(s *flakyStorage) { s.SetRaw([]byte(`[{"id":1,"amount":0}]`)) }},
		{"read error", func(s *flakyStorage) { s.loadErr = errors.New("permission denied") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &flakyStorage{CartStorage: memory.NewCartStorage()}
			tt.setup(storage)
			stock := newFakeStock(nil)

			s := NewCartStore(storage, stock, &fakeCatalog{}, notify.NewRecorder(1), newTestLogger(), Options{})
			s.Initialize(context.Background())

			assert.Equal(t, 0, s.Cart().Len())
			assert.Zero(t, stock.callCount())
		})
	}
}

// --- Subscribe ---

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()

	var got []string
	h.store.Subscribe(func(_ context.Context, c *domain.Cart) {
		got = append(got, fmt.Sprintf("a:%d", c.ItemCount()))
		assert.Equal(t, c.ItemCount(), h.stored(t).ItemCount(), "subscriber runs after the storage write")
	})
	unsubscribe := h.store.Subscribe(func(_ context.Context, c *domain.Cart) {
		got = append(got, fmt.Sprintf("b:%d", c.ItemCount()))
	})

	require.NoError(t, h.store.AddProduct(ctx, 1))
	unsubscribe()
	unsubscribe()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	assert.Equal(t, []string{"a:1", "b:1", "a:2"}, got)
}

func TestSubscribe_SnapshotsDoNotAlias(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	h.store.Subscribe(func(_ context.Context, c *domain.Cart) {
		c.Items[0].Amount = 99
	})

	require.NoError(t, h.store.AddProduct(context.Background(), 1))

	snapshot := h.store.Cart()
	assert.Equal(t, 1, snapshot.Items[0].Amount)
	snapshot.Items[0].Amount = 50
	assert.Equal(t, 1, h.store.Cart().Items[0].Amount)
}

func TestSubscribe_NoCallOnFailure(t *testing.T) {
	h := newHarness(t, map[int]int{1: 0}, "")
	called := false
	h.store.Subscribe(func(context.Context, *domain.Cart) { called = true })

	_ = h.store.AddProduct(context.Background(), 1)
	_ = h.store.RemoveProduct(context.Background(), 1)

	assert.False(t, called)
}

func TestSubscribe_SlowSubscriberDoesNotBlockStore(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5, 2: 5}, "")
	ctx := context.Background()

	release := make(chan struct{})
	var mu sync.Mutex
	var seen []int
	h.store.Subscribe(func(_ context.Context, c *domain.Cart) {
		<-release
		mu.Lock()
		seen = append(seen, c.Len())
		mu.Unlock()
	})

	done := make(chan error, 2)
	go func() { done <- h.store.AddProduct(ctx, 1) }()
	require.Eventually(t, func() bool { return h.store.Cart().Len() == 1 }, time.Second, time.Millisecond)
	go func() { done <- h.store.AddProduct(ctx, 2) }()
	require.Eventually(t, func() bool { return h.store.Cart().Len() == 2 }, time.Second, time.Millisecond)

	start := time.Now()
	cart := h.store.Cart()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, amounts(cart))

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen, "subscribers see commits in commit order")
}

func TestSubscribe_PanickingSubscriberDoesNotWedgeDelivery(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()

	calls := 0
	h.store.Subscribe(func(context.Context, *domain.Cart) {
		calls++
		if calls == 1 {
			panic("subscriber failed")
		}
	})

	assert.Panics(t, func() { _ = h.store.AddProduct(ctx, 1) })
	require.NoError(t, h.store.AddProduct(ctx, 1))
	assert.Equal(t, 2, calls)
	assert.Equal(t, map[int]int{1: 2}, amounts(h.store.Cart()))
}

// --- Scenario ---

func TestScenario_AddAddThenOverUpdate(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()

	require.NoError(t, h.store.AddProduct(ctx, 1))
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))

	require.NoError(t, h.store.AddProduct(ctx, 1))
	assert.Equal(t, map[int]int{1: 2}, amounts(h.store.Cart()))

	err := h.store.UpdateProductAmount(ctx, 1, 10)
	require.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Equal(t, map[int]int{1: 2}, amounts(h.store.Cart()))
	assert.Equal(t, map[int]int{1: 2}, amounts(h.stored(t)))
}

// --- Concurrency ---

func TestConcurrentAdds_SameProductDoNotLoseUpdates(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	gate := make(chan struct{})
	h.stock.gate = gate

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = h.store.AddProduct(context.Background(), 1)
		}(i)
	}

	close(gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, map[int]int{1: 2}, amounts(h.store.Cart()))
	assert.Zero(t, h.store.locks.size())
}

func TestConcurrentAdds_DifferentProducts(t *testing.T) {
	stock := map[int]int{}
	for id := 1; id <= 20; id++ {
		stock[id] = 3
	}
	h := newHarness(t, stock, "")

	var wg sync.WaitGroup
	for id := 1; id <= 20; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, h.store.AddProduct(context.Background(), id))
		}(id)
	}
	wg.Wait()

	cart := h.store.Cart()
	assert.Equal(t, 20, cart.Len())
	assert.Equal(t, 20, h.stored(t).Len())
	assert.NoError(t, cart.Validate())
}

func TestAddProduct_CanceledWhileWaitingForLock(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	gate := make(chan struct{})
	h.stock.gate = gate

	done := make(chan error, 1)
	go func() { done <- h.store.AddProduct(context.Background(), 1) }()

	require.Eventually(t, func() bool { return h.stock.callCount() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.store.AddProduct(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, notify.KindAddFailed, h.lastNotification(t).Kind)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, map[int]int{1: 1}, amounts(h.store.Cart()))
}

func TestAddProduct_ExistingClearedDuringStockCheck(t *testing.T) {
	h := newHarness(t, map[int]int{1: 5}, "")
	ctx := context.Background()
	require.NoError(t, h.store.AddProduct(ctx, 1))

	gate := make(chan struct{})
	h.stock.gate = gate
	before := h.stock.callCount()

	done := make(chan error, 1)
	go func() { done <- h.store.AddProduct(ctx, 1) }()
	require.Eventually(t, func() bool { return h.stock.callCount() == before+1 }, time.Second, time.Millisecond)

	require.NoError(t, h.store.Clear(ctx))
	close(gate)

	err := <-done
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	n := h.lastNotification(t)
	assert.Equal(t, notify.KindAddFailed, n.Kind)
	assert.Equal(t, notify.MsgAddFailed, n.Message)
	assert.Equal(t, 0, h.store.Cart().Len())
}

// --- Metrics ---

func TestMetrics_RecordOutcomes(t *testing.T) {
	h := newHarness(t, map[int]int{1: 1}, "")
	ctx := context.Background()

	require.NoError(t, h.store.AddProduct(ctx, 1))
	_ = h.store.AddProduct(ctx, 1)
	_ = h.store.RemoveProduct(ctx, 2)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.operations.WithLabelValues(opAdd, outcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.operations.WithLabelValues(opAdd, outcomeOutOfStock)))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.operations.WithLabelValues(opRemove, outcomeNotFound)))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.lines))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.units))
}

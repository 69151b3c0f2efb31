// Package store holds the cart state and the commands that change it.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"
	"github.com/utafrali/storefront-cart/pkg/logger"

	"github.com/utafrali/storefront-cart/internal/catalog"
	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/notify"
	"github.com/utafrali/storefront-cart/internal/repository"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update"
	opClear  = "clear"
)

// Subscriber is called with a private snapshot after every committed change.
// It runs on the committing goroutine after the store lock is released, one
// commit at a time in commit order. It must not call store commands.
type Subscriber func(ctx context.Context, cart *domain.Cart)

// Options tune a CartStore. The zero value is usable.
type Options struct {
	// Boundary decides whether a quantity equal to the available stock is
	// accepted. Defaults to domain.BoundaryInclusive.
	Boundary domain.StockBoundary
	// Metrics may be nil.
	Metrics *Metrics
	// Tracer defaults to the global provider.
	Tracer trace.Tracer
}

// CartStore owns the cart. Each command validates against the stock lookup,
// persists the new cart and then notifies subscribers. Commands on the same
// product are serialized; commands on different products run concurrently and
// each commit is applied to the latest cart.
type CartStore struct {
	storage  repository.CartStorage
	stock    catalog.StockLookup
	products catalog.ProductCatalog
	notifier notify.Notifier
	logger   *slog.Logger
	boundary domain.StockBoundary
	metrics  *Metrics
	tracer   trace.Tracer

	locks *keyedLock

	// mu guards cart and seq and orders storage writes.
	mu   sync.Mutex
	cart *domain.Cart
	seq  uint64

	// delivered is the last commit sequence handed to subscribers.
	deliverMu sync.Mutex
	deliverCh *sync.Cond
	delivered uint64

	subMu   sync.Mutex
	subs    []subscription
	nextSub uint64
}

type subscription struct {
	id uint64
	fn Subscriber
}

// NewCartStore creates a store holding an empty cart. Call Initialize to
// restore the persisted cart.
func NewCartStore(
	storage repository.CartStorage,
	stock catalog.StockLookup,
	products catalog.ProductCatalog,
	notifier notify.Notifier,
	logger *slog.Logger,
	opts Options,
) *CartStore {
	if opts.Boundary == "" {
		opts.Boundary = domain.BoundaryInclusive
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/utafrali/storefront-cart/internal/store")
	}
	s := &CartStore{
		storage:  storage,
		stock:    stock,
		products: products,
		notifier: notifier,
		logger:   logger,
		boundary: opts.Boundary,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		locks:    newKeyedLock(),
		cart:     domain.NewCart(),
	}
	s.deliverCh = sync.NewCond(&s.deliverMu)
	return s
}

// Initialize restores the persisted cart. If nothing usable is stored the
// store keeps an empty cart. It never fails and makes no network calls.
func (s *CartStore) Initialize(ctx context.Context) {
	cart, err := s.storage.Load(ctx)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "cart restored",
			slog.Int("line_items", cart.Len()),
			slog.Int("units", cart.ItemCount()),
		)
	case errors.Is(err, apperrors.ErrNotFound):
		s.logger.InfoContext(ctx, "no stored cart, starting empty")
		cart = domain.NewCart()
	case errors.Is(err, repository.ErrCorrupt):
		s.logger.WarnContext(ctx, "stored cart is malformed, starting empty", slog.String("error", err.Error()))
		cart = domain.NewCart()
	default:
		s.logger.WarnContext(ctx, "failed to load stored cart, starting empty", slog.String("error", err.Error()))
		cart = domain.NewCart()
	}

	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()
	s.metrics.setSize(cart.Len(), cart.ItemCount())
}

// Cart returns a snapshot of the current cart.
func (s *CartStore) Cart() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Subscribe registers fn and returns a func that removes it.
func (s *CartStore) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// AddProduct adds one unit of productID. A product already in the cart goes
// through the quantity update path with the stock check re-run; a new product
// needs stock above zero and its catalog entry.
func (s *CartStore) AddProduct(ctx context.Context, productID int) (err error) {
	ctx, span := s.start(ctx, "CartStore.AddProduct", productID)
	defer func() { s.finish(span, opAdd, err) }()

	unlock, err := s.locks.Lock(ctx, productID)
	if err != nil {
		return s.reject(ctx, opAdd, notify.KindAddFailed, productID, notify.MsgAddFailed, err)
	}
	defer unlock()

	if item, ok := s.current().Item(productID); ok {
		return s.setAmount(ctx, productID, item.Amount+1, notify.KindAddFailed, notify.MsgAddFailed)
	}

	stock, err := s.stock.Stock(ctx, productID)
	if err != nil {
		return s.reject(ctx, opAdd, notify.KindAddFailed, productID, notify.MsgAddFailed, err)
	}
	if stock.Available <= 0 {
		return s.reject(ctx, opAdd, notify.KindOutOfStock, productID, notify.MsgOutOfStock,
			apperrors.OutOfStock(productID, 1, stock.Available))
	}

	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return s.reject(ctx, opAdd, notify.KindAddFailed, productID, notify.MsgAddFailed, err)
	}
	product.ID = productID

	err = s.commit(ctx, func(cur *domain.Cart) (*domain.Cart, error) {
		if cur.Find(productID) >= 0 {
			return nil, apperrors.Conflict("product " + strconv.Itoa(productID) + " is already in the cart")
		}
		return cur.WithItem(domain.LineItem{Product: product, Amount: 1}), nil
	})
	if err != nil {
		return s.reject(ctx, opAdd, notify.KindAddFailed, productID, notify.MsgAddFailed, err)
	}
	return nil
}

// RemoveProduct removes productID from the cart.
func (s *CartStore) RemoveProduct(ctx context.Context, productID int) (err error) {
	ctx, span := s.start(ctx, "CartStore.RemoveProduct", productID)
	defer func() { s.finish(span, opRemove, err) }()

	unlock, err := s.locks.Lock(ctx, productID)
	if err != nil {
		return s.reject(ctx, opRemove, notify.KindRemoveFailed, productID, notify.MsgRemoveFailed, err)
	}
	defer unlock()

	err = s.commit(ctx, func(cur *domain.Cart) (*domain.Cart, error) {
		next, ok := cur.Without(productID)
		if !ok {
			return nil, apperrors.NotFound("cart item", strconv.Itoa(productID))
		}
		return next, nil
	})
	if err != nil {
		return s.reject(ctx, opRemove, notify.KindRemoveFailed, productID, notify.MsgRemoveFailed, err)
	}
	return nil
}

// UpdateProductAmount sets the quantity of productID. A non-positive amount
// is a successful no-op.
func (s *CartStore) UpdateProductAmount(ctx context.Context, productID, amount int) (err error) {
	if amount <= 0 {
		s.metrics.observe(opUpdate, outcomeNoop)
		return nil
	}

	ctx, span := s.start(ctx, "CartStore.UpdateProductAmount", productID)
	span.SetAttributes(attribute.Int("cart.amount", amount))
	defer func() { s.finish(span, opUpdate, err) }()

	unlock, err := s.locks.Lock(ctx, productID)
	if err != nil {
		return s.reject(ctx, opUpdate, notify.KindUpdateFailed, productID, notify.MsgUpdateFailed, err)
	}
	defer unlock()

	return s.setAmount(ctx, productID, amount, notify.KindUpdateFailed, notify.MsgUpdateFailed)
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "CartStore.Clear")
	defer func() { s.finish(span, opClear, err) }()

	err = s.commit(ctx, func(*domain.Cart) (*domain.Cart, error) {
		return domain.NewCart(), nil
	})
	if err != nil {
		logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to clear cart", slog.String("error", err.Error()))
	}
	return err
}

// setAmount is the shared quantity update path. The caller holds the product
// lock. failKind and failMsg describe every failure other than stock so the add
// path keeps its own messaging.
func (s *CartStore) setAmount(ctx context.Context, productID, amount int, failKind notify.Kind, failMsg string) error {
	op := opUpdate
	if failKind == notify.KindAddFailed {
		op = opAdd
	}

	if s.current().Find(productID) < 0 {
		return s.reject(ctx, op, failKind, productID, failMsg,
			apperrors.NotFound("cart item", strconv.Itoa(productID)))
	}

	stock, err := s.stock.Stock(ctx, productID)
	if err != nil {
		return s.reject(ctx, op, failKind, productID, failMsg, err)
	}
	if !s.boundary.Admits(stock, amount) {
		return s.reject(ctx, op, notify.KindOutOfStock, productID, notify.MsgOutOfStock,
			apperrors.OutOfStock(productID, amount, stock.Available))
	}

	err = s.commit(ctx, func(cur *domain.Cart) (*domain.Cart, error) {
		next, ok := cur.WithAmount(productID, amount)
		if !ok {
			return nil, apperrors.NotFound("cart item", strconv.Itoa(productID))
		}
		return next, nil
	})
	if err != nil {
		return s.reject(ctx, op, failKind, productID, failMsg, err)
	}
	return nil
}

// commit applies mutate to the latest cart, saves the result and only then
// replaces the held cart. Subscribers run after mu is released.
func (s *CartStore) commit(ctx context.Context, mutate func(cur *domain.Cart) (*domain.Cart, error)) error {
	s.mu.Lock()
	next, err := mutate(s.cart)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.storage.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return apperrors.Wrap(err, "save cart")
	}
	s.cart = next
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.deliver(ctx, seq, next)
	return nil
}

// deliver waits for every earlier commit to be delivered, then runs the
// subscribers for commit seq.
func (s *CartStore) deliver(ctx context.Context, seq uint64, cart *domain.Cart) {
	s.deliverMu.Lock()
	for s.delivered != seq-1 {
		s.deliverCh.Wait()
	}
	s.deliverMu.Unlock()
	defer func() {
		s.deliverMu.Lock()
		s.delivered = seq
		s.deliverMu.Unlock()
		s.deliverCh.Broadcast()
	}()

	s.metrics.setSize(cart.Len(), cart.ItemCount())

	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(ctx, cart.Clone())
	}
}

func (s *CartStore) current() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// reject notifies the user about a failed command and returns err.
func (s *CartStore) reject(ctx context.Context, op string, kind notify.Kind, productID int, msg string, err error) error {
	s.notifier.Notify(ctx, notify.Notification{Kind: kind, ProductID: productID, Message: msg})
	logger.WithContext(ctx, s.logger).InfoContext(ctx, "cart command rejected",
		slog.String("operation", op),
		slog.Int("product_id", productID),
		slog.String("reason", string(kind)),
		slog.String("error", err.Error()),
	)
	return err
}

func (s *CartStore) start(ctx context.Context, name string, productID int) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int("cart.product_id", productID)))
}

func (s *CartStore) finish(span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	s.metrics.observe(op, outcome)
	span.SetAttributes(attribute.String("cart.outcome", outcome))
	if outcome == outcomeError || outcome == outcomeNetworkFailure {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/utafrali/storefront-cart/pkg/kafka"
	"github.com/utafrali/storefront-cart/pkg/logger"

	"github.com/utafrali/storefront-cart/internal/domain"
)

// Kafka topic for cart events.
const TopicCartUpdated = "ecommerce.cart.updated"

const (
	EventTypeCartUpdated = "cart.updated"
	SourceCartService    = "cart-service"
)

const defaultPublishTimeout = 5 * time.Second

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	Items     []CartItemData  `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartItemData is one line item within a cart event.
type CartItemData struct {
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Amount    int             `json:"amount"`
}

// EventPublisher is satisfied by *pkgkafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Publisher turns committed carts into cart.updated events.
type Publisher struct {
	kafka   EventPublisher
	cartID  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a publisher. cartID becomes the event aggregate ID and
// message key.
func NewPublisher(kafka EventPublisher, cartID string, logger *slog.Logger) *Publisher {
	return &Publisher{
		kafka:   kafka,
		cartID:  cartID,
		timeout: defaultPublishTimeout,
		logger:  logger,
	}
}

// OnCommit publishes cart. It has the store.Subscriber signature. Failures are
// logged and dropped.
func (p *Publisher) OnCommit(ctx context.Context, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.PublishCartUpdated(ctx, cart); err != nil {
		logger.WithContext(ctx, p.logger).WarnContext(ctx, "failed to publish cart event",
			slog.String("event_type", EventTypeCartUpdated),
			slog.String("error", err.Error()),
		)
	}
}

// PublishCartUpdated publishes a cart.updated event for cart.
func (p *Publisher) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ID,
			Title:     item.Title(),
			Price:     item.Price(),
			Amount:    item.Amount,
		}
	}

	data := CartUpdatedData{
		Items:     items,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	}

	evt, err := pkgkafka.NewEvent(EventTypeCartUpdated, p.cartID, SourceCartService, data)
	if err != nil {
		return err
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	return p.kafka.Publish(ctx, TopicCartUpdated, evt)
}

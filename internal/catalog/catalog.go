// Package catalog talks to the stock lookup and product catalog services.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"
	"github.com/utafrali/storefront-cart/pkg/httpclient"

	"github.com/utafrali/storefront-cart/internal/domain"
)

const (
	stockService   = "stock service"
	catalogService = "product catalog"
)

// StockLookup returns the available quantity of a product.
type StockLookup interface {
	Stock(ctx context.Context, productID int) (domain.StockRecord, error)
}

// ProductCatalog returns the display data of a product.
type ProductCatalog interface {
	Product(ctx context.Context, productID int) (domain.Product, error)
}

// Client implements StockLookup and ProductCatalog over HTTP.
type Client struct {
	http       httpclient.Doer
	stockURL   string
	catalogURL string
	logger     *slog.Logger
}

var (
	_ StockLookup    = (*Client)(nil)
	_ ProductCatalog = (*Client)(nil)
)

// NewClient creates a client. Both services may share a base URL.
func NewClient(doer httpclient.Doer, stockBaseURL, catalogBaseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:       doer,
		stockURL:   strings.TrimRight(stockBaseURL, "/"),
		catalogURL: strings.TrimRight(catalogBaseURL, "/"),
		logger:     logger,
	}
}

// Stock fetches GET {stock}/stock/{id}.
func (c *Client) Stock(ctx context.Context, productID int) (domain.StockRecord, error) {
	var rec domain.StockRecord
	url := c.stockURL + "/stock/" + strconv.Itoa(productID)
	if err := c.getJSON(ctx, url, stockService, "stock", productID, &rec); err != nil {
		return domain.StockRecord{}, err
	}

	if rec.ProductID == 0 {
		rec.ProductID = productID
	}
	if rec.Available < 0 {
		c.logger.WarnContext(ctx, "negative stock reported, treating as zero",
			slog.Int("product_id", productID),
			slog.Int("amount", rec.Available),
		)
		rec.Available = 0
	}
	return rec, nil
}

// Product fetches GET {catalog}/products/{id}. The payload is kept whole.
func (c *Client) Product(ctx context.Context, productID int) (domain.Product, error) {
	var raw json.RawMessage
	url := c.catalogURL + "/products/" + strconv.Itoa(productID)
	if err := c.getJSON(ctx, url, catalogService, "product", productID, &raw); err != nil {
		return domain.Product{}, err
	}
	p, err := domain.ParseProduct(productID, raw)
	if err != nil {
		return domain.Product{}, apperrors.NetworkFailure(catalogService, fmt.Errorf("decode product %d: %w", productID, err))
	}
	return p, nil
}

func (c *Client) getJSON(ctx context.Context, url, service, resource string, id int, dst any) error {
	req, err := httpclient.NewGetRequest(ctx, url)
	if err != nil {
		return apperrors.Internal(err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.NetworkFailure(service, err)
	}

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, service, resource, strconv.Itoa(id))
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.NetworkFailure(service, fmt.Errorf("decode %s %d: %w", resource, id, err))
	}
	return nil
}

// CircuitOpenFallback reports an open breaker as a network failure of the
// named service.
func CircuitOpenFallback(service string) httpclient.FallbackFunc {
	return func(_ context.Context, err error) (*http.Response, error) {
		return nil, apperrors.NetworkFailure(service, err)
	}
}

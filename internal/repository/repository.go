package repository

import (
	"context"
	"errors"

	"github.com/utafrali/storefront-cart/internal/domain"
)

// DefaultKey is the storage key the cart is persisted under.
const DefaultKey = "@RocketShoes:cart"

// ErrCorrupt is returned by Load when stored data exists but does not decode
// to a valid cart.
var ErrCorrupt = errors.New("stored cart is corrupt")

// CartStorage persists the single cart.
type CartStorage interface {
	// Load returns the stored cart. It returns an error wrapping
	// apperrors.ErrNotFound if nothing was ever saved, and one wrapping
	// ErrCorrupt if the stored value is malformed.
	Load(ctx context.Context) (*domain.Cart, error)

	// Save overwrites the stored cart.
	Save(ctx context.Context, cart *domain.Cart) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

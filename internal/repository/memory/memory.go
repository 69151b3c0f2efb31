// Package memory keeps the cart in process memory.
package memory

import (
	"context"
	"sync"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"

	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/repository"
)

// CartStorage implements repository.CartStorage in memory. It stores the
// encoded form so loads never alias a saved cart.
type CartStorage struct {
	mu   sync.RWMutex
	data []byte
}

func NewCartStorage() *CartStorage {
	return &CartStorage{}
}

func (s *CartStorage) Load(_ context.Context) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, apperrors.NotFound("cart", "memory")
	}
	return repository.Decode(s.data)
}

func (s *CartStorage) Save(_ context.Context, cart *domain.Cart) error {
	data, err := repository.Encode(cart)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Raw returns the last saved payload, or nil.
func (s *CartStorage) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// SetRaw replaces the stored payload as-is.
func (s *CartStorage) SetRaw(data []byte) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

func (s *CartStorage) Ping(_ context.Context) error { return nil }

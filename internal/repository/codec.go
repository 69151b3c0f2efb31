package repository

import (
	"encoding/json"
	"fmt"

	"github.com/utafrali/storefront-cart/internal/domain"
)

// Encode serializes cart as the persisted JSON array.
func Encode(cart *domain.Cart) ([]byte, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

// Decode parses a persisted cart, wrapping any failure in ErrCorrupt.
func Decode(data []byte) (*domain.Cart, error) {
	cart, err := domain.DecodeCart(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return cart, nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"

	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/repository"
)

// CartStorage implements repository.CartStorage using a single Redis key.
type CartStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewCartStorage creates a Redis-backed cart storage. A ttl of zero keeps the
// key forever.
func NewCartStorage(client *redis.Client, key string, ttl time.Duration) *CartStorage {
	if key == "" {
		key = repository.DefaultKey
	}
	return &CartStorage{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Load retrieves the cart from Redis.
func (s *CartStorage) Load(ctx context.Context) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", s.key)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return repository.Decode(data)
}

// Save overwrites the cart key, refreshing its TTL.
func (s *CartStorage) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := repository.Encode(cart)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *CartStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

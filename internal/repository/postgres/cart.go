package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront-cart/pkg/database"
	apperrors "github.com/utafrali/storefront-cart/pkg/errors"

	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/repository"
)

const schema = `
	CREATE TABLE IF NOT EXISTS cart_state (
		key        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// CartStorage implements repository.CartStorage as one row of cart_state.
type CartStorage struct {
	pool database.DBTX
	key  string
}

// NewCartStorage creates a PostgreSQL-backed cart storage.
func NewCartStorage(pool database.DBTX, key string) *CartStorage {
	if key == "" {
		key = repository.DefaultKey
	}
	return &CartStorage{pool: pool, key: key}
}

// EnsureSchema creates the cart_state table if it does not exist.
func (s *CartStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cart_state table: %w", err)
	}
	return nil
}

// Load reads the cart row.
func (s *CartStorage) Load(ctx context.Context) (*domain.Cart, error) {
	query := `SELECT payload FROM cart_state WHERE key = $1`

	var payload []byte
	if err := s.pool.QueryRow(ctx, query, s.key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart", s.key)
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}
	return repository.Decode(payload)
}

// Save upserts the cart row.
func (s *CartStorage) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := repository.Encode(cart)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cart_state (key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, s.key, data); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}
	return nil
}

func (s *CartStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

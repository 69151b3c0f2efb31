// Package file stores the cart as a JSON file on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/repository"
	apperrors "github.com/utafrali/storefront-cart/pkg/errors"
)

// CartStorage implements repository.CartStorage on a single file.
type CartStorage struct {
	mu   sync.Mutex
	path string
}

// NewCartStorage creates a file-backed storage at path. The parent directory
// is created if missing.
func NewCartStorage(path string) (*CartStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cart directory: %w", err)
	}
	return &CartStorage{path: path}, nil
}

// Load reads the cart file.
func (s *CartStorage) Load(_ context.Context) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound("cart", s.path)
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	return repository.Decode(data)
}

// Save writes the cart to a temp file in the same directory and renames it
// over the previous file.
func (s *CartStorage) Save(_ context.Context, cart *domain.Cart) error {
	data, err := repository.Encode(cart)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cart-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cart file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cart file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}

// Ping checks that the cart directory exists.
func (s *CartStorage) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("stat cart directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Package catalog serves the listing and favorites side of the reference service.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/marketchat/internal/store"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// Service provides listing lookups and per-user favorites.
type Service struct {
	store store.Store
}

// New creates a catalog service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// CreateProduct lists a product for sellerID. price may be empty.
func (s *Service) CreateProduct(ctx context.Context, sellerID int64, title, thumbnail, price string) (*store.Product, error) {
	title = strings.TrimSpace(title)
	if title == "" || sellerID <= 0 {
		return nil, ErrInvalidProduct
	}

	p := &store.Product{SellerID: sellerID, Title: title, Thumbnail: strings.TrimSpace(thumbnail)}
	if price = strings.TrimSpace(price); price != "" {
		if _, err := strconv.ParseFloat(price, 64); err != nil {
			return nil, fmt.Errorf("%w: price %q", ErrInvalidProduct, price)
		}
		p.Price = &price
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// GetProduct retrieves a listing.
func (s *Service) GetProduct(ctx context.Context, id int64) (*store.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Favorites returns the favorited product ids of userID.
func (s *Service) Favorites(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}

// AddFavorite marks an existing product as a favorite of userID.
func (s *Service) AddFavorite(ctx context.Context, userID, productID int64) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.store.AddFavorite(ctx, userID, productID); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite forgets a favorite. Removing an absent one succeeds.
func (s *Service) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	if err := s.store.RemoveFavorite(ctx, userID, productID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLineNotFound    = errors.New("line not found in cart")
	ErrProductNotFound = errors.New("product not found")
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddLine upserts keyed on (user, product): an existing line's quantity
	// is increased, otherwise a new line is appended.
	AddLine(ctx context.Context, userID string, product domain.ProductSnapshot, quantity int) error
	UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, userID, lineID string) error
}

// FavoritesRepository stores boolean product membership per user.
type FavoritesRepository interface {
	List(ctx context.Context, userID string) ([]domain.FavoriteMark, error)
	// Add is idempotent: marking an already-favorited product is a no-op.
	Add(ctx context.Context, userID string, product domain.ProductSnapshot) error
	Remove(ctx context.Context, userID string, productID int64) error
	Exists(ctx context.Context, userID string, productID int64) (bool, error)
}

// ProductRepository reads the catalog snapshots embedded into cart lines and
// favorite marks at write time.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.ProductSnapshot, error)
}

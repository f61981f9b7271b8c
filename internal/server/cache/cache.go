package cache

import (
	"context"
	"errors"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

type CartCache interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SetCart(ctx context.Context, userID string, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type FavoritesCache interface {
	GetFavorites(ctx context.Context, userID string) ([]domain.FavoriteMark, error)
	SetFavorites(ctx context.Context, userID string, marks []domain.FavoriteMark) error
	DeleteFavorites(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

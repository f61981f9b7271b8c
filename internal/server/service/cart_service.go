package service

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/cache"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/repository"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.GetCart(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) { // no cart yet, serve an empty one
			return &domain.Cart{
				UserID:    userID,
				Lines:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.SetCart(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddLine validates the product against the catalog, embeds its snapshot and
// upserts keyed on (user, product).
func (s *CartService) AddLine(ctx context.Context, userID string, productID int64, quantity int) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if errAdd := s.repo.AddLine(ctx, userID, *product, quantity); errAdd != nil {
		log.Printf("repo add line error: %v", errAdd)
		return errAdd
	}

	s.invalidate(userID)
	return nil
}

func (s *CartService) UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	errUpdate := s.repo.UpdateLineQuantity(ctx, userID, lineID, quantity)
	if errUpdate != nil {
		log.Printf("repo update line quantity error: %v", errUpdate)
		return errUpdate
	}

	s.invalidate(userID)
	return nil
}

// RemoveLine treats an absent line or cart as already removed.
func (s *CartService) RemoveLine(ctx context.Context, userID, lineID string) error {
	errRemove := s.repo.RemoveLine(ctx, userID, lineID)
	if errRemove != nil {
		if errors.Is(errRemove, repository.ErrCartNotFound) || errors.Is(errRemove, repository.ErrLineNotFound) {
			return nil
		}
		log.Printf("repo remove line error: %v", errRemove)
		return errRemove
	}

	s.invalidate(userID)
	return nil
}

func (s *CartService) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.DeleteCart(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}

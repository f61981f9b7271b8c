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

type FavoritesService struct {
	repo     repository.FavoritesRepository
	products repository.ProductRepository
	cache    cache.FavoritesCache
	sfg      singleflight.Group
}

func NewFavoritesService(repo repository.FavoritesRepository, products repository.ProductRepository, favCache cache.FavoritesCache) *FavoritesService {
	return &FavoritesService{
		repo:     repo,
		products: products,
		cache:    favCache,
	}
}

func (s *FavoritesService) List(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		marks, err := s.cache.GetFavorites(ctx, userID)
		if err == nil {
			return marks, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err)
		}

		marks, errList := s.repo.List(ctx, userID)
		if errList != nil {
			return nil, errList
		}

		go func() {
			errSet := s.cache.SetFavorites(context.Background(), userID, marks)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return marks, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]domain.FavoriteMark), nil
}

func (s *FavoritesService) Add(ctx context.Context, userID string, productID int64) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if errAdd := s.repo.Add(ctx, userID, *product); errAdd != nil {
		log.Printf("repo add favorite error: %v", errAdd)
		return errAdd
	}

	s.invalidate(userID)
	return nil
}

func (s *FavoritesService) Remove(ctx context.Context, userID string, productID int64) error {
	if errRemove := s.repo.Remove(ctx, userID, productID); errRemove != nil {
		log.Printf("repo remove favorite error: %v", errRemove)
		return errRemove
	}

	s.invalidate(userID)
	return nil
}

// Check reads membership straight from the repository; it is cheap and the
// answer must not lag a just-issued toggle.
func (s *FavoritesService) Check(ctx context.Context, userID string, productID int64) (bool, error) {
	return s.repo.Exists(ctx, userID, productID)
}

func (s *FavoritesService) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.DeleteFavorites(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}

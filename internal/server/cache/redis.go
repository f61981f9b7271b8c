package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := r.get(ctx, cartKey(userID), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r RedisCache) SetCart(ctx context.Context, userID string, cart *domain.Cart) error {
	return r.set(ctx, cartKey(userID), cart)
}

func (r RedisCache) DeleteCart(ctx context.Context, userID string) error {
	return r.delete(ctx, cartKey(userID))
}

func (r RedisCache) GetFavorites(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	var marks []domain.FavoriteMark
	if err := r.get(ctx, favoritesKey(userID), &marks); err != nil {
		return nil, err
	}
	return marks, nil
}

func (r RedisCache) SetFavorites(ctx context.Context, userID string, marks []domain.FavoriteMark) error {
	return r.set(ctx, favoritesKey(userID), marks)
}

func (r RedisCache) DeleteFavorites(ctx context.Context, userID string) error {
	return r.delete(ctx, favoritesKey(userID))
}

func (r RedisCache) get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal cached value failed: %w", err)
	}
	return nil
}

func (r RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached value failed: %w", err)
	}

	// jitter spreads expiry so a burst of sets does not expire as one
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, key, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func favoritesKey(userID string) string {
	return fmt.Sprintf("favorites:%s", userID)
}

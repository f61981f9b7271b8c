package favorites

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/keylock"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/session"
)

// RemoteStore defines what the favorites engine needs from the store client.
type RemoteStore interface {
	FetchFavorites(ctx context.Context) ([]domain.FavoriteMark, error)
	AddFavorite(ctx context.Context, productID int64) error
	RemoveFavorite(ctx context.Context, productID int64) error
}

// Engine owns the set of favorited products for the signed-in user. Same
// consistency model as the cart: invalidate-then-refetch, convergence after
// the refetch rather than mid-flight correctness. Toggles are serialized per
// product id so two rapid toggles cannot race each other into a lost update.
type Engine struct {
	gate  session.Gate
	store RemoteStore
	sfg   singleflight.Group
	locks *keylock.KeyLock

	mu      sync.RWMutex
	owner   string
	set     map[int64]domain.ProductSnapshot
	fetched bool
	stale   bool
}

func NewEngine(gate session.Gate, store RemoteStore) *Engine {
	return &Engine{
		gate:  gate,
		store: store,
		locks: keylock.New(),
	}
}

// Products returns the favorited products. Empty and non-fetching when
// unauthenticated.
func (e *Engine) Products(ctx context.Context) ([]domain.ProductSnapshot, error) {
	user := e.gate.CurrentUser()
	if user == nil {
		e.mu.Lock()
		e.reset()
		e.mu.Unlock()
		return nil, nil
	}

	// A failed refetch keeps serving the prior set rather than blanking it.
	err := e.ensure(ctx, user.ID)

	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.ProductSnapshot, 0, len(e.set))
	for _, p := range e.set {
		out = append(out, p)
	}
	return out, err
}

// IsFavorite is a pure membership check against the last-fetched set. It
// must not trigger a network call.
func (e *Engine) IsFavorite(productID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.set[productID]
	return ok
}

// Toggle flips the product's membership: add if absent, remove if present,
// then invalidate so the next read refetches the authoritative set.
func (e *Engine) Toggle(ctx context.Context, product domain.ProductSnapshot) error {
	user, err := session.RequireAuth(e.gate)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("favorite:%d", product.ID)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	if err := e.ensure(ctx, user.ID); err != nil {
		return err
	}

	if e.IsFavorite(product.ID) {
		err = e.store.RemoveFavorite(ctx, product.ID)
	} else {
		err = e.store.AddFavorite(ctx, product.ID)
	}
	if err != nil {
		log.Printf("favorites toggle error: %v", err)
		return err
	}

	// Flip the cached membership so back-to-back toggles observe the first
	// one; the stale flag still forces a refetch on the next read.
	e.mu.Lock()
	if _, ok := e.set[product.ID]; ok {
		delete(e.set, product.ID)
	} else {
		e.set[product.ID] = product
	}
	e.stale = true
	e.mu.Unlock()
	return nil
}

// ensure loads the membership set if missing or stale, deduplicating
// concurrent fetches per user.
func (e *Engine) ensure(ctx context.Context, userID string) error {
	e.mu.Lock()
	if e.owner != userID {
		e.reset()
		e.owner = userID
	}
	if e.fetched && !e.stale {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	v, err, _ := e.sfg.Do(userID, func() (interface{}, error) {
		return e.store.FetchFavorites(ctx)
	})
	if err != nil {
		log.Printf("favorites fetch error: %v", err)
		return err
	}

	marks := v.([]domain.FavoriteMark)
	set := make(map[int64]domain.ProductSnapshot, len(marks))
	for _, m := range marks {
		set[m.ProductID] = m.Product
	}

	e.mu.Lock()
	e.set = set
	e.fetched = true
	e.stale = false
	e.mu.Unlock()
	return nil
}

// reset drops the cached set; callers hold e.mu.
func (e *Engine) reset() {
	e.owner = ""
	e.set = nil
	e.fetched = false
	e.stale = false
}

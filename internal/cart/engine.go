package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/keylock"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/session"
)

// RemoteStore defines what the cart engine needs from the store client.
// Consumers define this interface, not the HTTP implementation.
type RemoteStore interface {
	FetchCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, productID int64, quantity int) error
	UpdateLine(ctx context.Context, lineID string, quantity int) error
	RemoveLine(ctx context.Context, lineID string) error
}

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateIdle            State = "idle"
	StateLoading         State = "loading"
	StateReady           State = "ready"
	StateError           State = "error"
)

// Engine owns the authoritative local view of the signed-in user's cart.
// Consistency model is invalidate-then-refetch: every acknowledged mutation
// marks the snapshot stale and the next read fetches from the remote store.
// The engine never patches the snapshot optimistically.
type Engine struct {
	gate  session.Gate
	store RemoteStore
	sfg   singleflight.Group // one in-flight fetch per user
	locks *keylock.KeyLock   // serializes mutations per line/product

	mu       sync.RWMutex
	owner    string // user id the snapshot belongs to
	snapshot []domain.CartLine
	fetched  bool
	stale    bool
	state    State
}

func NewEngine(gate session.Gate, store RemoteStore) *Engine {
	return &Engine{
		gate:  gate,
		store: store,
		locks: keylock.New(),
		state: StateIdle,
	}
}

// Lines returns the current cart snapshot. Unauthenticated callers get nil
// immediately with no network activity. A failed refetch returns the last
// ready snapshot alongside the error so a transient failure never visually
// empties a non-empty cart.
func (e *Engine) Lines(ctx context.Context) ([]domain.CartLine, error) {
	user := e.gate.CurrentUser()
	if user == nil {
		e.mu.Lock()
		e.reset(StateUnauthenticated)
		e.mu.Unlock()
		return nil, nil
	}

	e.mu.Lock()
	if e.owner != user.ID {
		// identity changed since the last fetch, prior snapshot is not ours
		e.reset(StateIdle)
		e.owner = user.ID
	}
	if e.fetched && !e.stale {
		lines := cloneLines(e.snapshot)
		e.mu.Unlock()
		return lines, nil
	}
	e.state = StateLoading
	e.mu.Unlock()

	v, err, _ := e.sfg.Do(user.ID, func() (interface{}, error) {
		return e.store.FetchCart(ctx)
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		log.Printf("cart fetch error: %v", err)
		e.state = StateError
		if e.fetched {
			return cloneLines(e.snapshot), err
		}
		return nil, err
	}

	cart := v.(*domain.Cart)
	e.snapshot = cloneLines(cart.Lines)
	e.fetched = true
	e.stale = false
	e.state = StateReady
	return cloneLines(e.snapshot), nil
}

// Add issues a create-or-merge request keyed on (user, product). The remote
// store keeps one line per product, so adding an already-carted product bumps
// its quantity instead of creating a second line.
func (e *Engine) Add(ctx context.Context, product domain.ProductSnapshot, quantity int) error {
	if _, err := session.RequireAuth(e.gate); err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}

	key := fmt.Sprintf("product:%d", product.ID)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	if err := e.store.AddItem(ctx, product.ID, quantity); err != nil {
		log.Printf("cart add item error: %v", err)
		return err
	}

	e.invalidate()
	return nil
}

// UpdateQuantity sets a line's quantity. A non-positive quantity is routed to
// Remove; a zero-quantity line must never reach the remote store.
func (e *Engine) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity <= 0 {
		return e.Remove(ctx, lineID)
	}
	if _, err := session.RequireAuth(e.gate); err != nil {
		return err
	}

	e.locks.Lock(lineID)
	defer e.locks.Unlock(lineID)

	if err := e.store.UpdateLine(ctx, lineID, quantity); err != nil {
		log.Printf("cart update quantity error: %v", err)
		return err
	}

	e.invalidate()
	return nil
}

// Remove deletes a line. Removing an already-absent line is not an error.
func (e *Engine) Remove(ctx context.Context, lineID string) error {
	if _, err := session.RequireAuth(e.gate); err != nil {
		return err
	}

	e.locks.Lock(lineID)
	defer e.locks.Unlock(lineID)

	if err := e.store.RemoveLine(ctx, lineID); err != nil {
		log.Printf("cart remove line error: %v", err)
		return err
	}

	e.invalidate()
	return nil
}

// Clear removes every line for the current user, one removal per line since
// the remote store has no bulk-clear endpoint. Partial failure leaves the
// view intact; the next fetch is the source of truth either way.
func (e *Engine) Clear(ctx context.Context) error {
	if _, err := session.RequireAuth(e.gate); err != nil {
		return err
	}

	lines, err := e.Lines(ctx)
	if err != nil {
		return err
	}

	var failed []error
	for _, line := range lines {
		if errRemove := e.store.RemoveLine(ctx, line.ID); errRemove != nil {
			log.Printf("cart clear: remove line %s error: %v", line.ID, errRemove)
			failed = append(failed, errRemove)
		}
	}

	e.invalidate()
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}

// Subtotal is Σ(price×quantity) over the current snapshot, recomputed on
// every call. No network activity.
func (e *Engine) Subtotal() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.Subtotal(e.snapshot)
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Invalidate marks the snapshot stale so the next read refetches. Exposed
// for out-of-band convergence (another surface mutated the same cart).
func (e *Engine) Invalidate() {
	e.invalidate()
}

func (e *Engine) invalidate() {
	e.mu.Lock()
	e.stale = true
	e.mu.Unlock()
}

// reset drops the snapshot; callers hold e.mu.
func (e *Engine) reset(state State) {
	e.owner = ""
	e.snapshot = nil
	e.fetched = false
	e.stale = false
	e.state = state
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

package favorites

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/session"
)

type mockStore struct {
	m     sync.Mutex
	set   map[int64]domain.ProductSnapshot
	err   error
	calls int
}

func newMockStore() *mockStore {
	return &mockStore{set: make(map[int64]domain.ProductSnapshot)}
}

func (m *mockStore) FetchFavorites(context.Context) ([]domain.FavoriteMark, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	marks := make([]domain.FavoriteMark, 0, len(m.set))
	for id, p := range m.set {
		marks = append(marks, domain.FavoriteMark{UserID: "u1", ProductID: id, Product: p})
	}
	return marks, nil
}

func (m *mockStore) AddFavorite(_ context.Context, productID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.set[productID] = domain.ProductSnapshot{ID: productID}
	return nil
}

func (m *mockStore) RemoveFavorite(_ context.Context, productID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	delete(m.set, productID)
	return nil
}

func (m *mockStore) callCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}

func signedInGate() *session.MemoryGate {
	gate := session.NewMemoryGate()
	gate.SignIn(session.User{ID: "u1"})
	return gate
}

func product(id int64) domain.ProductSnapshot {
	return domain.ProductSnapshot{ID: id, Name: fmt.Sprintf("product-%d", id), Price: decimal.RequireFromString("9.99")}
}

func TestProducts_Unauthenticated_EmptyAndNonFetching(t *testing.T) {
	store := newMockStore()
	sut := NewEngine(session.NewMemoryGate(), store)

	products, err := sut.Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 0, store.callCount())
}

func TestToggle_Unauthenticated_FailsWithoutNetwork(t *testing.T) {
	store := newMockStore()
	sut := NewEngine(session.NewMemoryGate(), store)

	err := sut.Toggle(context.Background(), product(1))
	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, 0, store.callCount())
}

func TestToggle_AddsThenRemoves(t *testing.T) {
	store := newMockStore()
	sut := NewEngine(signedInGate(), store)

	require.NoError(t, sut.Toggle(context.Background(), product(1)))
	products, err := sut.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, sut.IsFavorite(1))

	require.NoError(t, sut.Toggle(context.Background(), product(1)))
	products, err = sut.Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products, "two awaited toggles must return membership to its original state")
	assert.False(t, sut.IsFavorite(1))
}

func TestIsFavorite_PureMembershipCheck(t *testing.T) {
	store := newMockStore()
	store.set[3] = product(3)

	sut := NewEngine(signedInGate(), store)
	_, err := sut.Products(context.Background())
	require.NoError(t, err)
	before := store.callCount()

	assert.True(t, sut.IsFavorite(3))
	assert.False(t, sut.IsFavorite(4))
	assert.Equal(t, before, store.callCount(), "membership checks must not trigger network calls")
}

func TestToggle_StoreError_MembershipUnchanged(t *testing.T) {
	store := newMockStore()
	store.set[5] = product(5)

	sut := NewEngine(signedInGate(), store)
	_, err := sut.Products(context.Background())
	require.NoError(t, err)

	store.m.Lock()
	store.err = fmt.Errorf("%w: store unreachable", domain.ErrMutationFailed)
	store.m.Unlock()

	err = sut.Toggle(context.Background(), product(5))
	require.ErrorIs(t, err, domain.ErrMutationFailed)
	assert.True(t, sut.IsFavorite(5))
}

func TestToggle_ConcurrentSameProduct_Converges(t *testing.T) {
	store := newMockStore()
	sut := NewEngine(signedInGate(), store)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sut.Toggle(context.Background(), product(9))
		}()
	}
	wg.Wait()

	// serialized toggles: the second observes the first, net effect zero
	products, err := sut.Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProducts_FetchError_KeepsPriorSet(t *testing.T) {
	store := newMockStore()
	store.set[2] = product(2)

	sut := NewEngine(signedInGate(), store)
	before, err := sut.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, sut.Toggle(context.Background(), product(8))) // marks stale
	store.m.Lock()
	store.err = fmt.Errorf("%w: network down", domain.ErrFetchFailed)
	store.m.Unlock()

	// refetch fails: the cached set is served alongside the error, not blanked
	after, err := sut.Products(context.Background())
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Len(t, after, 2)
	assert.True(t, sut.IsFavorite(2))
	assert.True(t, sut.IsFavorite(8))
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/cache"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/repository"
)

type mockCartRepository struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartRepository) AddLine(_ context.Context, _ string, product domain.ProductSnapshot, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	// Upsert keyed on product: bump quantity if the line already exists
	for i := range m.cart.Lines {
		if m.cart.Lines[i].ProductID == product.ID {
			m.cart.Lines[i].Quantity += quantity
			return nil
		}
	}
	m.cart.Lines = append(m.cart.Lines, domain.CartLine{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   product,
		AddedAt:   time.Now(),
	})
	return nil
}

func (m *mockCartRepository) UpdateLineQuantity(_ context.Context, _ string, lineID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.cart.Lines {
		if m.cart.Lines[i].ID == lineID {
			m.cart.Lines[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrLineNotFound
}

func (m *mockCartRepository) RemoveLine(_ context.Context, _ string, lineID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, line := range m.cart.Lines {
		if line.ID == lineID {
			m.cart.Lines = append(m.cart.Lines[:i], m.cart.Lines[i+1:]...)
			return nil
		}
	}
	return repository.ErrLineNotFound
}

type mockProductRepository struct {
	products map[int64]domain.ProductSnapshot
}

func (m *mockProductRepository) GetProduct(_ context.Context, id int64) (*domain.ProductSnapshot, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

type mockCartCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartCache) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCartCache) SetCart(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCartCache) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCartCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

func testCatalog() *mockProductRepository {
	return &mockProductRepository{
		products: map[int64]domain.ProductSnapshot{
			1: {ID: 1, Name: "mug", Price: decimal.RequireFromString("9.99"), Stock: 10},
			2: {ID: 2, Name: "lamp", Price: decimal.RequireFromString("25.00"), Stock: 3},
		},
	}
}

func TestGetCart_Success(t *testing.T) {
	cart := &domain.Cart{
		Lines: []domain.CartLine{
			{ID: "l1", ProductID: 1, Quantity: 5},
			{ID: "l2", ProductID: 2, Quantity: 10},
		},
		UserID:    "123",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{cart: nil}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	ret, err := sut.GetCart(context.Background(), "123")
	require.NoError(t, err)
	assert.NotNil(t, ret)
	assert.Equal(t, 2, len(ret.Lines))
	assert.Equal(t, int64(1), ret.Lines[0].ProductID)
	assert.Equal(t, 5, ret.Lines[0].Quantity)

	require.Eventually(t, func() bool {
		return mockC.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGetCart_RepoError(t *testing.T) {
	mockRepo := &mockCartRepository{err: fmt.Errorf("database error")}
	mockC := &mockCartCache{cart: nil}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	ret, err := sut.GetCart(context.Background(), "123")
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, ret)
	assert.Nil(t, mockC.getCart())
}

func TestGetCart_CacheHit(t *testing.T) {
	cart := &domain.Cart{
		Lines:  []domain.CartLine{{ID: "l1", ProductID: 1, Quantity: 3}},
		UserID: "123",
	}
	mockRepo := &mockCartRepository{cart: nil} // repo should NOT be called
	mockC := &mockCartCache{cart: cart}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	ret, err := sut.GetCart(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 1, len(ret.Lines))
	assert.Equal(t, int64(1), ret.Lines[0].ProductID)
}

func TestGetCart_CartNotFound_ReturnsEmptyCart(t *testing.T) {
	mockRepo := &mockCartRepository{err: repository.ErrCartNotFound}
	mockC := &mockCartCache{cart: nil}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	ret, err := sut.GetCart(context.Background(), "123")
	require.NoError(t, err)
	assert.NotNil(t, ret)
	assert.Equal(t, "123", ret.UserID)
	assert.Empty(t, ret.Lines)
}

func TestAddLine_Success(t *testing.T) {
	cart := &domain.Cart{Lines: []domain.CartLine{}, UserID: "123"}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{cart: cart}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.AddLine(context.Background(), "123", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, len(mockRepo.cart.Lines))
	assert.Equal(t, int64(1), mockRepo.cart.Lines[0].ProductID)
	assert.Equal(t, 5, mockRepo.cart.Lines[0].Quantity)
	assert.Equal(t, "mug", mockRepo.cart.Lines[0].Product.Name)

	// Verify cache was invalidated
	require.Eventually(t, func() bool {
		return mockC.getCart() == nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestAddLine_ExistingProduct_BumpsQuantity(t *testing.T) {
	cart := &domain.Cart{Lines: []domain.CartLine{}, UserID: "123"}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	require.NoError(t, sut.AddLine(context.Background(), "123", 1, 1))
	require.NoError(t, sut.AddLine(context.Background(), "123", 1, 1))

	// One line per product, quantities summed
	assert.Equal(t, 1, len(mockRepo.cart.Lines))
	assert.Equal(t, 2, mockRepo.cart.Lines[0].Quantity)
}

func TestAddLine_UnknownProduct(t *testing.T) {
	cart := &domain.Cart{Lines: []domain.CartLine{}, UserID: "123"}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.AddLine(context.Background(), "123", 999, 1)
	require.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Empty(t, mockRepo.cart.Lines)
}

func TestAddLine_RepoError(t *testing.T) {
	mockRepo := &mockCartRepository{
		cart: &domain.Cart{Lines: []domain.CartLine{}},
		err:  fmt.Errorf("database error"),
	}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.AddLine(context.Background(), "123", 1, 5)
	require.ErrorContains(t, err, "database error")
}

func TestUpdateLineQuantity_Success(t *testing.T) {
	cart := &domain.Cart{
		Lines: []domain.CartLine{
			{ID: "l1", ProductID: 1, Quantity: 5},
			{ID: "l2", ProductID: 2, Quantity: 10},
		},
		UserID: "123",
	}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{cart: cart}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.UpdateLineQuantity(context.Background(), "123", "l1", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, mockRepo.cart.Lines[0].Quantity)

	// Verify cache was invalidated
	require.Eventually(t, func() bool {
		return mockC.getCart() == nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestUpdateLineQuantity_LineNotFound(t *testing.T) {
	cart := &domain.Cart{Lines: []domain.CartLine{{ID: "l1", ProductID: 1, Quantity: 5}}}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.UpdateLineQuantity(context.Background(), "123", "missing", 20)
	require.ErrorIs(t, err, repository.ErrLineNotFound)
}

func TestRemoveLine_Success(t *testing.T) {
	cart := &domain.Cart{
		Lines: []domain.CartLine{
			{ID: "l1", ProductID: 1, Quantity: 5},
			{ID: "l2", ProductID: 2, Quantity: 10},
		},
		UserID: "123",
	}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{cart: cart}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.RemoveLine(context.Background(), "123", "l1")
	require.NoError(t, err)
	assert.Equal(t, 1, len(mockRepo.cart.Lines))
	assert.Equal(t, "l2", mockRepo.cart.Lines[0].ID)

	// Verify cache was invalidated
	require.Eventually(t, func() bool {
		return mockC.getCart() == nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestRemoveLine_AbsentLine_IsNoop(t *testing.T) {
	cart := &domain.Cart{Lines: []domain.CartLine{{ID: "l1", ProductID: 1, Quantity: 5}}}
	mockRepo := &mockCartRepository{cart: cart}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.RemoveLine(context.Background(), "123", "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, len(mockRepo.cart.Lines))
}

func TestRemoveLine_RepoError(t *testing.T) {
	mockRepo := &mockCartRepository{
		cart: &domain.Cart{Lines: []domain.CartLine{{ID: "l1", ProductID: 1, Quantity: 5}}},
		err:  fmt.Errorf("database error"),
	}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, testCatalog(), mockC)
	err := sut.RemoveLine(context.Background(), "123", "l1")
	require.ErrorContains(t, err, "database error")
}

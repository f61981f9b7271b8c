package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

func TestQuote_EmptyCart(t *testing.T) {
	draft, err := Quote(nil)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Nil(t, draft)
}

func TestQuote_SingleLine(t *testing.T) {
	lines := []domain.CartLine{
		{
			ID:        "l1",
			ProductID: 1,
			Quantity:  2,
			Product:   domain.ProductSnapshot{ID: 1, Price: decimal.RequireFromString("25.00")},
		},
	}

	draft, err := Quote(lines)
	require.NoError(t, err)
	assert.True(t, draft.Subtotal.Equal(decimal.RequireFromString("50.00")), "subtotal %s", draft.Subtotal)
	assert.True(t, draft.Taxes.Equal(decimal.RequireFromString("4.00")), "taxes %s", draft.Taxes)
	assert.True(t, draft.Total.Equal(decimal.RequireFromString("59.00")), "total %s", draft.Total)
}

func TestQuote_PureFunctionOfLines(t *testing.T) {
	lines := []domain.CartLine{
		{ID: "l1", Quantity: 3, Product: domain.ProductSnapshot{ID: 1, Price: decimal.RequireFromString("19.99")}},
		{ID: "l2", Quantity: 1, Product: domain.ProductSnapshot{ID: 2, Price: decimal.RequireFromString("0.01")}},
	}

	first, err := Quote(lines)
	require.NoError(t, err)
	second, err := Quote(lines)
	require.NoError(t, err)
	assert.True(t, first.Total.Equal(second.Total))

	subtotal := decimal.RequireFromString("59.98")
	assert.True(t, first.Subtotal.Equal(subtotal))
	assert.True(t, first.Total.Equal(subtotal.Add(ShippingCost).Add(subtotal.Mul(TaxRate))))
}

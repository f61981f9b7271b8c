package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

// Shipping cost and tax rate are fixed per visit, external to cart contents.
var (
	ShippingCost = decimal.RequireFromString("5.00")
	TaxRate      = decimal.RequireFromString("0.08")
)

const Currency = "EUR"

// Quote derives the order draft from the given cart lines. It is a pure
// function of the line set plus the constants above; an empty cart yields
// domain.ErrEmptyCart and no draft.
func Quote(lines []domain.CartLine) (*domain.OrderDraft, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	subtotal := domain.Subtotal(lines)
	taxes := subtotal.Mul(TaxRate)
	return &domain.OrderDraft{
		Subtotal:     subtotal,
		ShippingCost: ShippingCost,
		TaxRate:      TaxRate,
		Taxes:        taxes,
		Total:        subtotal.Add(ShippingCost).Add(taxes),
	}, nil
}

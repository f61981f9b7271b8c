package domain

import "github.com/shopspring/decimal"

// OrderDraft is the derived pricing summary shown at checkout. It is never
// persisted and never cached on its own: it must always be a pure function of
// the current cart lines plus the fixed shipping/tax constants.
type OrderDraft struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Taxes        decimal.Decimal `json:"taxes"`
	Total        decimal.Decimal `json:"total"`
}

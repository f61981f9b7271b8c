package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product-quantity pairing in a user's cart. The store keeps
// at most one line per (user, product); adding an already-carted product bumps
// the quantity of the existing line instead of creating a second one.
type CartLine struct {
	ID        string          `json:"id" bson:"line_id"`
	ProductID int64           `json:"product_id" bson:"product_id"`
	Quantity  int             `json:"quantity" bson:"quantity"`
	Product   ProductSnapshot `json:"product" bson:"product"`
	AddedAt   time.Time       `json:"added_at" bson:"added_at"`
}

type Cart struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	UserID    string     `json:"user_id" bson:"user_id"`
	Lines     []CartLine `json:"lines" bson:"lines"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Subtotal recomputes Σ(price×quantity) over the given lines. Always derived
// from the line set, never accumulated across mutations.
func Subtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

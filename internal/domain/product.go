package domain

import "github.com/shopspring/decimal"

// ProductSnapshot is denormalized product data embedded in a cart line at
// fetch time. The engine does not re-validate staleness; price and stock are
// whatever the last fetch returned.
type ProductSnapshot struct {
	ID       int64           `json:"id" bson:"product_id"`
	Name     string          `json:"name" bson:"name"`
	Price    decimal.Decimal `json:"price" bson:"price"`
	ImageURL string          `json:"image_url" bson:"image_url"`
	Stock    int             `json:"stock" bson:"stock"`
	Category string          `json:"category" bson:"category"`
	Rating   float64         `json:"rating" bson:"rating"`
	Reviews  int             `json:"reviews" bson:"reviews"`
}

package domain

import "time"

// FavoriteMark is a boolean membership record: the product is in the user's
// favorites or it is not. Never partially updated.
type FavoriteMark struct {
	UserID    string          `json:"user_id" bson:"user_id"`
	ProductID int64           `json:"product_id" bson:"product_id"`
	Product   ProductSnapshot `json:"product" bson:"product"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
}

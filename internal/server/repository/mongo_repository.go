package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{collection: db.Collection("carts")}
}

func (m mongoCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m mongoCartRepository) AddLine(ctx context.Context, userID string, product domain.ProductSnapshot, quantity int) error {
	now := time.Now()
	filter := bson.M{"user_id": userID}

	// First, check if cart exists
	var existing domain.Cart
	err := m.collection.FindOne(ctx, filter).Decode(&existing)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			cart := &domain.Cart{
				UserID: userID,
				Lines: []domain.CartLine{{
					ID:        uuid.NewString(),
					ProductID: product.ID,
					Quantity:  quantity,
					Product:   product,
					AddedAt:   now,
				}},
				CreatedAt: now,
				UpdatedAt: now,
			}

			_, err = m.collection.InsertOne(ctx, cart)
			if err != nil {
				return fmt.Errorf("failed to create cart with line: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing cart: %w", err)
	}

	// One line per (user, product): an existing line gets its quantity
	// increased, never a sibling line.
	lineExists := false
	for _, line := range existing.Lines {
		if line.ProductID == product.ID {
			lineExists = true
			break
		}
	}

	if lineExists {
		update := bson.M{
			"$inc": bson.M{"lines.$[elem].quantity": quantity},
			"$set": bson.M{
				"lines.$[elem].product": product,
				"updated_at":            now,
			},
		}
		arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.product_id": product.ID},
			},
		})

		_, err = m.collection.UpdateOne(ctx, filter, update, arrayFilters)
		if err != nil {
			return fmt.Errorf("failed to merge existing line: %w", err)
		}
	} else {
		line := domain.CartLine{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   product,
			AddedAt:   now,
		}
		update := bson.M{
			"$push": bson.M{"lines": line},
			"$set":  bson.M{"updated_at": now},
		}

		_, err = m.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("failed to add new line: %w", err)
		}
	}

	return nil
}

func (m mongoCartRepository) UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	filter := bson.M{
		"user_id":       userID,
		"lines.line_id": lineID,
	}

	update := bson.M{
		"$set": bson.M{
			"lines.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.line_id": lineID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update line quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (m mongoCartRepository) RemoveLine(ctx context.Context, userID, lineID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"lines": bson.M{"line_id": lineID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove line: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

type mongoFavoritesRepository struct {
	collection *mongo.Collection
}

func NewMongoFavoritesRepository(db *mongo.Database) FavoritesRepository {
	return &mongoFavoritesRepository{collection: db.Collection("favorites")}
}

func (m mongoFavoritesRepository) List(ctx context.Context, userID string) ([]domain.FavoriteMark, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var marks []domain.FavoriteMark
	if err := cursor.All(ctx, &marks); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	return marks, nil
}

func (m mongoFavoritesRepository) Add(ctx context.Context, userID string, product domain.ProductSnapshot) error {
	filter := bson.M{"user_id": userID, "product_id": product.ID}
	update := bson.M{
		"$set":         bson.M{"product": product},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (m mongoFavoritesRepository) Remove(ctx context.Context, userID string, productID int64) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	// deleting an absent mark is fine, membership is boolean
	return nil
}

func (m mongoFavoritesRepository) Exists(ctx context.Context, userID string, productID int64) (bool, error) {
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID, "product_id": productID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return true, nil
}

func (m *mongoFavoritesRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection("products")}
}

func (m mongoProductRepository) GetProduct(ctx context.Context, id int64) (*domain.ProductSnapshot, error) {
	var product domain.ProductSnapshot

	err := m.collection.FindOne(ctx, bson.M{"product_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

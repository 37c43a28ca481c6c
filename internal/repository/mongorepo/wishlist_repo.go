package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrastore-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type wishlistRepository struct {
	coll *mongo.Collection
}

func NewWishlistRepository(db *mongo.Database) domain.WishlistRepository {
	return &wishlistRepository{coll: db.Collection(wishlistsCollection)}
}

func (r *wishlistRepository) GetByCustomer(ctx context.Context, customerID string) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := r.coll.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find wishlist: %w", err)
	}
	return &w, nil
}

// AddProducts uses $addToSet so repeated adds leave one entry per product.
func (r *wishlistRepository) AddProducts(ctx context.Context, customerID string, productIDs ...primitive.ObjectID) (*domain.Wishlist, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		var w domain.Wishlist
		err = r.coll.FindOneAndUpdate(ctx,
			bson.M{"customerId": customerID},
			bson.M{
				"$addToSet":    bson.M{"productIds": bson.M{"$each": productIDs}},
				"$set":         bson.M{"updatedAt": now},
				"$setOnInsert": bson.M{"createdAt": now},
			},
			opts).Decode(&w)
		if err == nil {
			return &w, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	return nil, fmt.Errorf("add to wishlist: %w", err)
}

func (r *wishlistRepository) RemoveProduct(ctx context.Context, customerID string, productID primitive.ObjectID) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"customerId": customerID},
		bson.M{
			"$pull": bson.M{"productIds": productID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	return &w, nil
}

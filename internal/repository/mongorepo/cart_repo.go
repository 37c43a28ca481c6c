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

// maxCartAttempts bounds retries when concurrent writers race on one cart.
const maxCartAttempts = 3

var errCartContention = errors.New("cart: too many concurrent updates")

type cartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) domain.CartRepository {
	return &cartRepository{coll: db.Collection(cartsCollection)}
}

func (r *cartRepository) GetByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.coll.FindOne(ctx, bson.M{"customerId": customerID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return &cart, nil
}

// AddQuantity increments an existing line in place. Otherwise it pushes a new
// line, upserting the cart; the productId $ne guard keeps the push from
// duplicating a line another request just added, and the unique customerId
// index turns a racing cart creation into a duplicate key error that is retried.
func (r *cartRepository) AddQuantity(ctx context.Context, customerID string, line domain.CartLine) error {
	for attempt := 0; attempt < maxCartAttempts; attempt++ {
		now := time.Now().UTC()

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"customerId": customerID, "items.productId": line.ProductID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": line.Quantity},
				"$set": bson.M{"updatedAt": now},
			})
		if err != nil {
			return fmt.Errorf("increment cart line: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		_, err = r.coll.UpdateOne(ctx,
			bson.M{"customerId": customerID, "items.productId": bson.M{"$ne": line.ProductID}},
			bson.M{
				"$push":        bson.M{"items": line},
				"$set":         bson.M{"updatedAt": now},
				"$setOnInsert": bson.M{"createdAt": now},
			},
			options.Update().SetUpsert(true))
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("push cart line: %w", err)
		}
	}
	return errCartContention
}

// DecrementItem lowers a line above one by one, or pulls a line at one. When
// neither update applies because the line changed underneath, it retries.
func (r *cartRepository) DecrementItem(ctx context.Context, customerID string, productID primitive.ObjectID) error {
	for attempt := 0; attempt < maxCartAttempts; attempt++ {
		now := time.Now().UTC()

		res, err := r.coll.UpdateOne(ctx,
			bson.M{
				"customerId": customerID,
				"items":      bson.M{"$elemMatch": bson.M{"productId": productID, "quantity": bson.M{"$gt": 1}}},
			},
			bson.M{
				"$inc": bson.M{"items.$.quantity": -1},
				"$set": bson.M{"updatedAt": now},
			})
		if err != nil {
			return fmt.Errorf("decrement cart line: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		res, err = r.coll.UpdateOne(ctx,
			bson.M{
				"customerId": customerID,
				"items":      bson.M{"$elemMatch": bson.M{"productId": productID, "quantity": bson.M{"$lte": 1}}},
			},
			bson.M{
				"$pull": bson.M{"items": bson.M{"productId": productID, "quantity": bson.M{"$lte": 1}}},
				"$set":  bson.M{"updatedAt": now},
			})
		if err != nil {
			return fmt.Errorf("remove cart line: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		n, err := r.coll.CountDocuments(ctx, bson.M{"customerId": customerID, "items.productId": productID})
		if err != nil {
			return fmt.Errorf("check cart line: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
	return errCartContention
}

func (r *cartRepository) RemoveItem(ctx context.Context, customerID string, productID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"customerId": customerID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, customerID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"customerId": customerID},
		bson.M{"$set": bson.M{"items": bson.A{}, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

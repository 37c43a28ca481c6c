//go:build integration

package mongorepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"nutrastore-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := Connect(ctx, uri, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("nutrastore_test")
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func TestMongoRepositories(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()

	catA, catB := primitive.NewObjectID(), primitive.NewObjectID()
	tablet := primitive.NewObjectID()
	ref := domain.Product{ID: primitive.NewObjectID(), Name: "ref", Category: catA, ProductTypes: []primitive.ObjectID{tablet}}
	sameCat := domain.Product{ID: primitive.NewObjectID(), Name: "same category", Category: catA}
	sameType := domain.Product{ID: primitive.NewObjectID(), Name: "same type", Category: catB, ProductTypes: []primitive.ObjectID{tablet}}
	unrelated := domain.Product{ID: primitive.NewObjectID(), Name: "unrelated", Category: catB}
	_, err := db.Collection(productsCollection).InsertMany(ctx, []interface{}{ref, sameCat, sameType, unrelated})
	require.NoError(t, err)

	t.Run("products", func(t *testing.T) {
		repo := NewProductRepository(db)

		got, err := repo.GetByID(ctx, ref.ID)
		require.NoError(t, err)
		assert.Equal(t, "ref", got.Name)

		missing, err := repo.GetByID(ctx, primitive.NewObjectID())
		require.NoError(t, err)
		assert.Nil(t, missing)

		candidates, err := repo.FindSimilarCandidates(ctx, &ref)
		require.NoError(t, err)
		names := []string{}
		for _, c := range candidates {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"same category", "same type"}, names)

		sample, err := repo.SampleProducts(ctx, domain.SimilarFilter{
			Categories: []primitive.ObjectID{catB},
			Exclude:    []primitive.ObjectID{unrelated.ID},
		}, 10)
		require.NoError(t, err)
		require.Len(t, sample, 1)
		assert.Equal(t, sameType.ID, sample[0].ID)
	})

	t.Run("cart concurrent adds", func(t *testing.T) {
		repo := NewCartRepository(db)
		line := domain.CartLine{ProductID: sameCat.ID, Name: sameCat.Name, Quantity: 1, UnitPrice: 10}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.AddQuantity(ctx, "cust-concurrent", line))
			}()
		}
		wg.Wait()

		cart, err := repo.GetByCustomer(ctx, "cust-concurrent")
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 10, cart.Items[0].Quantity)
	})

	t.Run("cart decrement and remove", func(t *testing.T) {
		repo := NewCartRepository(db)
		require.NoError(t, repo.AddQuantity(ctx, "cust-dec", domain.CartLine{ProductID: sameCat.ID, Quantity: 2}))
		require.NoError(t, repo.AddQuantity(ctx, "cust-dec", domain.CartLine{ProductID: sameType.ID, Quantity: 1}))

		require.NoError(t, repo.DecrementItem(ctx, "cust-dec", sameCat.ID))
		require.NoError(t, repo.DecrementItem(ctx, "cust-dec", sameType.ID))

		cart, err := repo.GetByCustomer(ctx, "cust-dec")
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 1, cart.Items[0].Quantity)

		require.NoError(t, repo.DecrementItem(ctx, "cust-dec", unrelated.ID))
		require.NoError(t, repo.RemoveItem(ctx, "cust-dec", sameCat.ID))
		cart, err = repo.GetByCustomer(ctx, "cust-dec")
		require.NoError(t, err)
		assert.Empty(t, cart.Items)

		require.NoError(t, repo.AddQuantity(ctx, "cust-dec", domain.CartLine{ProductID: sameCat.ID, Quantity: 3}))
		require.NoError(t, repo.Clear(ctx, "cust-dec"))
		cart, err = repo.GetByCustomer(ctx, "cust-dec")
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("wishlist", func(t *testing.T) {
		repo := NewWishlistRepository(db)

		none, err := repo.RemoveProduct(ctx, "cust-w", sameCat.ID)
		require.NoError(t, err)
		assert.Nil(t, none)

		w, err := repo.AddProducts(ctx, "cust-w", sameCat.ID, sameType.ID)
		require.NoError(t, err)
		w, err = repo.AddProducts(ctx, "cust-w", sameCat.ID)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{sameCat.ID, sameType.ID}, w.ProductIDs)

		w, err = repo.RemoveProduct(ctx, "cust-w", sameCat.ID)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{sameType.ID}, w.ProductIDs)
	})
}

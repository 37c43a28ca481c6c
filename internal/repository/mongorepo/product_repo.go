package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"nutrastore-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type productRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) domain.ProductRepository {
	return &productRepository{coll: db.Collection(productsCollection)}
}

func (r *productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var p domain.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return &p, nil
}

func (r *productRepository) FindSimilarCandidates(ctx context.Context, ref *domain.Product) ([]domain.Product, error) {
	filter := candidateFilter(ref)
	if filter == nil {
		return []domain.Product{}, nil
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find similar candidates: %w", err)
	}
	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode similar candidates: %w", err)
	}
	return products, nil
}

func (r *productRepository) SampleProducts(ctx context.Context, filter domain.SimilarFilter, size int) ([]domain.Product, error) {
	if size <= 0 {
		return []domain.Product{}, nil
	}

	cur, err := r.coll.Aggregate(ctx, samplePipeline(filter, size))
	if err != nil {
		return nil, fmt.Errorf("sample products: %w", err)
	}
	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode sampled products: %w", err)
	}
	return products, nil
}

package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Interfaces ---

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Product struct {
	ID           primitive.ObjectID   `json:"_id" bson:"_id"`
	Name         string               `json:"name" bson:"name"`
	Slug         string               `json:"slug,omitempty" bson:"slug,omitempty"`
	Category     primitive.ObjectID   `json:"category" bson:"category"`
	ProductTypes []primitive.ObjectID `json:"productTypes" bson:"productTypes"`
	Benefits     []primitive.ObjectID `json:"benefits" bson:"benefits"`
	Price        float64              `json:"price" bson:"price"`
	Discount     float64              `json:"discount" bson:"discount"` // percent, 0-100
	Images       []string             `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// SimilarFilter is the fallback criteria set for similar products.
// Each dimension is an OR across its ids; dimensions are OR'ed together.
type SimilarFilter struct {
	Categories   []primitive.ObjectID
	ProductTypes []primitive.ObjectID
	Benefits     []primitive.ObjectID
	Exclude      []primitive.ObjectID
}

// Unconstrained reports whether no matching dimension was supplied.
// Exclusions do not count.
func (f SimilarFilter) Unconstrained() bool {
	return len(f.Categories) == 0 && len(f.ProductTypes) == 0 && len(f.Benefits) == 0
}

type ProductRepository interface {
	// GetByID returns nil, nil when the product does not exist.
	GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	// FindSimilarCandidates returns every product other than ref that shares
	// its category, a product type or a benefit.
	FindSimilarCandidates(ctx context.Context, ref *Product) ([]Product, error)
	// SampleProducts draws a uniform random sample matching filter.
	SampleProducts(ctx context.Context, filter SimilarFilter, size int) ([]Product, error)
}

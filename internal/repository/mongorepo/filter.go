package mongorepo

import (
	"nutrastore-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// candidateFilter matches products sharing at least one dimension with ref.
// It returns nil when ref has nothing to match on.
func candidateFilter(ref *domain.Product) bson.M {
	var or bson.A
	if !ref.Category.IsZero() {
		or = append(or, bson.M{"category": ref.Category})
	}
	if len(ref.ProductTypes) > 0 {
		or = append(or, bson.M{"productTypes": bson.M{"$in": ref.ProductTypes}})
	}
	if len(ref.Benefits) > 0 {
		or = append(or, bson.M{"benefits": bson.M{"$in": ref.Benefits}})
	}
	if len(or) == 0 {
		return nil
	}
	return bson.M{
		"_id": bson.M{"$ne": ref.ID},
		"$or": or,
	}
}

// sampleFilter ORs the supplied dimensions and removes excluded ids.
// An unconstrained filter matches the whole catalog.
func sampleFilter(f domain.SimilarFilter) bson.M {
	match := bson.M{}

	var or bson.A
	if len(f.Categories) > 0 {
		or = append(or, bson.M{"category": bson.M{"$in": f.Categories}})
	}
	if len(f.ProductTypes) > 0 {
		or = append(or, bson.M{"productTypes": bson.M{"$in": f.ProductTypes}})
	}
	if len(f.Benefits) > 0 {
		or = append(or, bson.M{"benefits": bson.M{"$in": f.Benefits}})
	}
	if len(or) > 0 {
		match["$or"] = or
	}
	if len(f.Exclude) > 0 {
		match["_id"] = bson.M{"$nin": f.Exclude}
	}
	return match
}

func samplePipeline(f domain.SimilarFilter, size int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: sampleFilter(f)}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	}
}

package mongorepo

import (
	"testing"

	"nutrastore-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCandidateFilter(t *testing.T) {
	cat := primitive.NewObjectID()
	typ := primitive.NewObjectID()
	ref := &domain.Product{ID: primitive.NewObjectID(), Category: cat, ProductTypes: []primitive.ObjectID{typ}}

	got := candidateFilter(ref)

	require.NotNil(t, got)
	assert.Equal(t, bson.M{"$ne": ref.ID}, got["_id"])
	assert.Equal(t, bson.A{
		bson.M{"category": cat},
		bson.M{"productTypes": bson.M{"$in": []primitive.ObjectID{typ}}},
	}, got["$or"])
}

func TestCandidateFilterWithoutDimensions(t *testing.T) {
	assert.Nil(t, candidateFilter(&domain.Product{ID: primitive.NewObjectID()}))
}

func TestSampleFilter(t *testing.T) {
	cat := primitive.NewObjectID()
	benefit := primitive.NewObjectID()
	excluded := primitive.NewObjectID()

	tests := []struct {
		name   string
		filter domain.SimilarFilter
		want   bson.M
	}{
		{
			name:   "unconstrained",
			filter: domain.SimilarFilter{},
			want:   bson.M{},
		},
		{
			name:   "exclusions only",
			filter: domain.SimilarFilter{Exclude: []primitive.ObjectID{excluded}},
			want:   bson.M{"_id": bson.M{"$nin": []primitive.ObjectID{excluded}}},
		},
		{
			name: "dimensions are OR'ed",
			filter: domain.SimilarFilter{
				Categories: []primitive.ObjectID{cat},
				Benefits:   []primitive.ObjectID{benefit},
				Exclude:    []primitive.ObjectID{excluded},
			},
			want: bson.M{
				"$or": bson.A{
					bson.M{"category": bson.M{"$in": []primitive.ObjectID{cat}}},
					bson.M{"benefits": bson.M{"$in": []primitive.ObjectID{benefit}}},
				},
				"_id": bson.M{"$nin": []primitive.ObjectID{excluded}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sampleFilter(tt.filter))
		})
	}
}

func TestSamplePipeline(t *testing.T) {
	p := samplePipeline(domain.SimilarFilter{}, 7)

	require.Len(t, p, 2)
	assert.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, "$sample", p[1][0].Key)
	assert.Equal(t, bson.M{"size": 7}, p[1][0].Value)
}

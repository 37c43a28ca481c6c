package usecase

import (
	"sort"

	"nutrastore-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Relevance weights. Overlaps count once regardless of how many ids are shared.
const (
	categoryWeight    = 3
	productTypeWeight = 2
	benefitWeight     = 1
)

// RelevanceScore scores candidate against ref. Zero means the candidate
// shares nothing with ref and is not similar at all.
func RelevanceScore(ref, candidate *domain.Product) int {
	score := 0
	if !ref.Category.IsZero() && candidate.Category == ref.Category {
		score += categoryWeight
	}
	if overlaps(ref.ProductTypes, candidate.ProductTypes) {
		score += productTypeWeight
	}
	if overlaps(ref.Benefits, candidate.Benefits) {
		score += benefitWeight
	}
	return score
}

func overlaps(a, b []primitive.ObjectID) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[primitive.ObjectID]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

type scoredProduct struct {
	product domain.Product
	score   int
}

// RankSimilar orders candidates by descending score, breaking ties by id,
// and keeps at most limit of them. The reference product and candidates
// with a zero score are dropped.
func RankSimilar(ref *domain.Product, candidates []domain.Product, limit int) []domain.Product {
	scored := make([]scoredProduct, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == ref.ID {
			continue
		}
		if s := RelevanceScore(ref, c); s > 0 {
			scored = append(scored, scoredProduct{product: *c, score: s})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].product.ID.Hex() < scored[j].product.ID.Hex()
	})

	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]domain.Product, len(scored))
	for i, s := range scored {
		out[i] = s.product
	}
	return out
}

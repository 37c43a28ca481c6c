package usecase

import (
	"context"
	"fmt"
	"time"

	"nutrastore-backend/config"
	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/cache"
	"nutrastore-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SimilarQuery is the raw, unvalidated request for similar products.
type SimilarQuery struct {
	ProductID    string
	Categories   []string
	ProductTypes []string
	Benefits     []string
	Exclude      []string
	Limit        int
}

type SimilarUsecase struct {
	repo         domain.ProductRepository
	cache        cache.CacheService
	cacheTTL     time.Duration
	defaultLimit int
	maxLimit     int
}

func NewSimilarUsecase(repo domain.ProductRepository, cache cache.CacheService, cfg *config.Config) *SimilarUsecase {
	return &SimilarUsecase{
		repo:         repo,
		cache:        cache,
		cacheTTL:     cfg.CacheSimilarTTL,
		defaultLimit: cfg.SimilarDefaultLimit,
		maxLimit:     cfg.SimilarMaxLimit,
	}
}

// SimilarProducts ranks products against a reference product when
// q.ProductID is a valid id, and otherwise samples from the filter criteria.
func (u *SimilarUsecase) SimilarProducts(ctx context.Context, q SimilarQuery) ([]domain.Product, error) {
	limit := u.normalizeLimit(q.Limit)

	if q.ProductID != "" {
		if refID, err := primitive.ObjectIDFromHex(q.ProductID); err == nil {
			return u.byReference(ctx, refID, limit)
		}
		logger.WithContext(ctx).Debug().Str("product_id", q.ProductID).Msg("similar products: malformed reference id, using filters")
	}

	filter := domain.SimilarFilter{
		Categories:   parseObjectIDs(q.Categories),
		ProductTypes: parseObjectIDs(q.ProductTypes),
		Benefits:     parseObjectIDs(q.Benefits),
		Exclude:      parseObjectIDs(q.Exclude),
	}
	return u.byFilter(ctx, filter, limit)
}

func (u *SimilarUsecase) byReference(ctx context.Context, refID primitive.ObjectID, limit int) ([]domain.Product, error) {
	cacheKey := fmt.Sprintf("similar:%s:%d", refID.Hex(), limit)
	if cached, found := u.cache.Get(cacheKey); found {
		if products, ok := cached.([]domain.Product); ok {
			return products, nil
		}
	}

	ref, err := u.repo.GetByID(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("load reference product: %w", err)
	}
	if ref == nil {
		return nil, domain.NotFound("Product %s not found.", refID.Hex())
	}

	candidates, err := u.repo.FindSimilarCandidates(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("find similar candidates: %w", err)
	}

	ranked := RankSimilar(ref, candidates, limit)
	u.cache.Set(cacheKey, ranked, u.cacheTTL)
	return ranked, nil
}

func (u *SimilarUsecase) byFilter(ctx context.Context, filter domain.SimilarFilter, limit int) ([]domain.Product, error) {
	sampled, err := u.repo.SampleProducts(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("sample products: %w", err)
	}

	excluded := make(map[primitive.ObjectID]struct{}, len(filter.Exclude))
	for _, id := range filter.Exclude {
		excluded[id] = struct{}{}
	}

	out := make([]domain.Product, 0, len(sampled))
	for _, p := range sampled {
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (u *SimilarUsecase) normalizeLimit(limit int) int {
	if limit <= 0 {
		return u.defaultLimit
	}
	if u.maxLimit > 0 && limit > u.maxLimit {
		return u.maxLimit
	}
	return limit
}

// parseObjectIDs keeps the well-formed, distinct ids and drops the rest.
func parseObjectIDs(raw []string) []primitive.ObjectID {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[primitive.ObjectID]struct{}, len(raw))
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

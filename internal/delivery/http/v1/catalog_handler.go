package v1

import (
	"context"
	"net/http"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/internal/usecase"
	"nutrastore-backend/pkg/utils"
)

type SimilarService interface {
	SimilarProducts(ctx context.Context, q usecase.SimilarQuery) ([]domain.Product, error)
}

type CatalogHandler struct {
	similar SimilarService
}

func NewCatalogHandler(similar SimilarService) *CatalogHandler {
	return &CatalogHandler{similar: similar}
}

// SimilarProducts serves GET /products/similarProducts. Repeated query keys
// accumulate; a bad limit falls back to the default.
func (h *CatalogHandler) SimilarProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.similar.SimilarProducts(r.Context(), usecase.SimilarQuery{
		ProductID:    q.Get("productId"),
		Categories:   utils.QueryList(q["category"]),
		ProductTypes: utils.QueryList(q["productTypes"]),
		Benefits:     utils.QueryList(q["benefits"]),
		Exclude:      utils.QueryList(q["exclude"]),
		Limit:        utils.ParseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	utils.WriteResult(w, http.StatusOK, products)
}

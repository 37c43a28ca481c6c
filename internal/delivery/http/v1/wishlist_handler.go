package v1

import (
	"context"
	"net/http"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/utils"
)

type WishlistService interface {
	GetMyWishlist(ctx context.Context, customerID string) (*domain.Wishlist, error)
	AddToWishlist(ctx context.Context, customerID, productID string) (*domain.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, customerID, productID string) (*domain.Wishlist, error)
	MergeWishlist(ctx context.Context, customerID string, productIDs []string) (*domain.Wishlist, error)
}

type WishlistHandler struct {
	usecase WishlistService
}

func NewWishlistHandler(usecase WishlistService) *WishlistHandler {
	return &WishlistHandler{usecase: usecase}
}

type WishlistRequest struct {
	ProductID string `json:"productId"`
}

type MergeWishlistRequest struct {
	ProductIDs []string `json:"productIds"`
}

// All wishlist endpoints answer with the product id array only.

func (h *WishlistHandler) GetMyWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	wishlist, err := h.usecase.GetMyWishlist(r.Context(), user.ID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}

	utils.WriteResult(w, http.StatusOK, wishlist.ProductIDs)
}

func (h *WishlistHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req WishlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wishlist, err := h.usecase.AddToWishlist(r.Context(), user.ID, req.ProductID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, wishlist.ProductIDs)
}

func (h *WishlistHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req WishlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wishlist, err := h.usecase.RemoveFromWishlist(r.Context(), user.ID, req.ProductID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, wishlist.ProductIDs)
}

func (h *WishlistHandler) MergeWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req MergeWishlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wishlist, err := h.usecase.MergeWishlist(r.Context(), user.ID, req.ProductIDs)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, wishlist.ProductIDs)
}

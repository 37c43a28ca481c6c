package v1

import (
	"context"
	"net/http"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/internal/usecase"
	"nutrastore-backend/pkg/utils"
)

type CartService interface {
	GetMyCart(ctx context.Context, customerID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, customerID, productID string) (*domain.Cart, error)
	DecrementCartItem(ctx context.Context, customerID, productID string) (*domain.Cart, error)
	DeleteCartItem(ctx context.Context, customerID, productID string) (*domain.Cart, error)
	MergeCart(ctx context.Context, customerID string, lines []usecase.MergeLine) (*domain.Cart, error)
	ClearCart(ctx context.Context, customerID string) (*domain.Cart, error)
}

type CartHandler struct {
	cart CartService
}

func NewCartHandler(cart CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type cartItemReq struct {
	ProductID string `json:"productId"`
}

type mergeCartReq struct {
	Items []usecase.MergeLine `json:"items"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cart, err := h.cart.GetMyCart(r.Context(), user.ID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteResult(w, http.StatusOK, cart)
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.cart.AddToCart)
}

func (h *CartHandler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.cart.DecrementCartItem)
}

func (h *CartHandler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cart, err := h.cart.DeleteCartItem(r.Context(), user.ID, r.PathValue("productId"))
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, cart)
}

func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req mergeCartReq
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.cart.MergeCart(r.Context(), user.ID, req.Items)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cart, err := h.cart.ClearCart(r.Context(), user.ID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, cart)
}

func (h *CartHandler) mutateLine(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, customerID, productID string) (*domain.Cart, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req cartItemReq
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := op(r.Context(), user.ID, req.ProductID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, cart)
}

package v1

import (
	"context"
	"net/http"

	"nutrastore-backend/internal/delivery/http/middleware"
	"nutrastore-backend/internal/domain"
	"nutrastore-backend/internal/usecase"
	"nutrastore-backend/pkg/utils"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID string, req usecase.PlaceOrderReq) (*domain.Order, error)
	CancelOrder(ctx context.Context, customerID, orderID string) (*domain.CarrierResult, error)
	ListMyOrders(ctx context.Context, customerID string) ([]domain.Order, error)
	ListPendingOrders(ctx context.Context) ([]domain.Order, error)
}

type OrderHandler struct {
	orderUC OrderService
}

func NewOrderHandler(uc OrderService) *OrderHandler {
	return &OrderHandler{orderUC: uc}
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req usecase.PlaceOrderReq
	if !decodeJSON(w, r, &req) {
		return
	}
	req.IdempotencyKey = r.Header.Get(middleware.IdempotencyKeyHeader)

	if _, err := h.orderUC.PlaceOrder(r.Context(), user.ID, req); err != nil {
		writeAppError(r.Context(), w, err)
		return
	}

	utils.WriteMessage(w, http.StatusCreated, "Ordered successfully.")
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orderUC.ListMyOrders(r.Context(), user.ID)
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteResult(w, http.StatusOK, orders)
}

// CancelOrder serves PUT /orders?id=. The body carries the carrier's own
// status code and message.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	res, err := h.orderUC.CancelOrder(r.Context(), user.ID, r.URL.Query().Get("id"))
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Response{
		StatusCode: res.StatusCode,
		Success:    true,
		Result:     res.Message,
	})
}

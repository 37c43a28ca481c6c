package v1

import (
	"net/http"

	"nutrastore-backend/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC OrderService
}

func NewAdminOrderHandler(uc OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

// ListPendingOrders returns orders whose shipment outcome is unknown.
func (h *AdminOrderHandler) ListPendingOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUC.ListPendingOrders(r.Context())
	if err != nil {
		writeAppError(r.Context(), w, err)
		return
	}
	utils.WriteResult(w, http.StatusOK, orders)
}

package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantResult string
	}{
		{"invalid input", domain.InvalidInput("cart is empty"), http.StatusBadRequest, http.StatusBadRequest, "cart is empty"},
		{"not found", domain.NotFound("order not found"), http.StatusNotFound, http.StatusNotFound, "order not found"},
		{"invalid state", domain.InvalidState("no shipment"), http.StatusConflict, http.StatusConflict, "no shipment"},
		{"no default address", domain.NoDefaultAddress(), http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, "No default shipping address on file."},
		{"carrier 4xx passthrough", domain.ShippingProviderError(422, "Invalid pincode", nil), 422, 422, "Invalid pincode"},
		{"carrier 200 with error body", domain.ShippingProviderError(200, "Order already cancelled", nil), http.StatusBadGateway, 200, "Order already cancelled"},
		{"carrier timeout", domain.ShippingProviderTimeout(context.DeadlineExceeded), http.StatusGatewayTimeout, http.StatusGatewayTimeout, "Shipping provider did not respond in time."},
		{"plain error", errors.New("pq: connection refused"), http.StatusInternalServerError, http.StatusInternalServerError, "Something went wrong."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeAppError(context.Background(), rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body utils.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.StatusCode)
			assert.Equal(t, tt.wantResult, body.Result)
		})
	}
}

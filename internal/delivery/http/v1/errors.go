package v1

import (
	"context"
	"net/http"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/logger"
	"nutrastore-backend/pkg/utils"
)

// writeAppError maps an error to its HTTP status and writes the error envelope.
// Unexpected errors are logged with their cause and answered generically.
func writeAppError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr, ok := domain.AsError(err)
	if !ok {
		appErr = domain.Unexpected(err)
	}

	status := statusForError(appErr)
	body := utils.Response{StatusCode: status, Success: false, Result: appErr.Message}

	switch appErr.Code {
	case domain.CodeUnexpected:
		logger.WithContext(ctx).Error().Err(appErr.Err).Msg("unexpected error")
	case domain.CodeShippingProviderError, domain.CodeShippingProviderTimeout:
		logger.WithContext(ctx).Warn().Err(appErr).Int("carrier_status", appErr.StatusCode).Msg("shipping provider failure")
		if appErr.StatusCode != 0 {
			body.StatusCode = appErr.StatusCode
		}
	}

	utils.WriteJSON(w, status, body)
}

func statusForError(e *domain.Error) int {
	switch e.Code {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidState:
		return http.StatusConflict
	case domain.CodeNoDefaultAddress:
		return http.StatusUnprocessableEntity
	case domain.CodeShippingProviderTimeout:
		return http.StatusGatewayTimeout
	case domain.CodeShippingProviderError:
		if e.StatusCode >= 400 && e.StatusCode < 600 {
			return e.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

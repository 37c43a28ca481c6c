package v1

import (
	"io"
	"net/http"

	"nutrastore-backend/internal/delivery/http/middleware"
	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/utils"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

// currentUser writes 401 when the auth middleware did not run.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

// decodeJSON writes 400 on a malformed or oversized body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Response is the envelope every endpoint writes.
// Successful reads set Status, mutations and errors set StatusCode.
type Response struct {
	Status     int         `json:"status,omitempty"`
	StatusCode int         `json:"statusCode,omitempty"`
	Success    bool        `json:"success"`
	Result     interface{} `json:"result"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// WriteResult writes a successful read as {status, success, result}.
func WriteResult(w http.ResponseWriter, status int, result interface{}) {
	WriteJSON(w, status, Response{Status: status, Success: true, Result: result})
}

// WriteMessage writes a successful mutation as {statusCode, success, result}.
func WriteMessage(w http.ResponseWriter, status int, result interface{}) {
	WriteJSON(w, status, Response{StatusCode: status, Success: true, Result: result})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{StatusCode: status, Success: false, Result: message})
}

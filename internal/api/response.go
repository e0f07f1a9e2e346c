// Package api implements HTTP handlers for the currency rates service.
package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx answer except the token check.
type ErrorResponse struct {
	Error string `json:"error" example:"amount must be a decimal number"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

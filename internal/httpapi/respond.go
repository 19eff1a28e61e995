// ABOUTME: Shared JSON response helpers for promptdeck HTTP handlers
// ABOUTME: Keeps success and error bodies consistent across the three services

package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the uniform error body: {"error": "..."}
type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorResponse{Error: msg})
}

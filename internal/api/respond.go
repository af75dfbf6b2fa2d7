package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps storefront failures onto response codes. Portal side
// failures are reported as 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storefront.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, storefront.ErrResourceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

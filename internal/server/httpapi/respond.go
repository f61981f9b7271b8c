package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps repository/service errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, repository.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "line_not_found", "cart line not found")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

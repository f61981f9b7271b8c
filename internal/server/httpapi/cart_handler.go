package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

// CartService is what the cart endpoints need from the service layer.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddLine(ctx context.Context, userID string, productID int64, quantity int) error
	UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, userID, lineID string) error
}

type CartHandler struct {
	service CartService
	timeout time.Duration
}

func NewCartHandler(service CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		service: service,
		timeout: timeout,
	}
}

type AddLineRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.service.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.service.AddLine(ctx, userID, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.service.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.service.UpdateLineQuantity(ctx, userID, lineID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.service.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	if err := h.service.RemoveLine(ctx, userID, lineID); err != nil {
		handleServiceError(w, err)
		return
	}

	cart, err := h.service.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

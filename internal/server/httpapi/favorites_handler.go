package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

type FavoritesService interface {
	List(ctx context.Context, userID string) ([]domain.FavoriteMark, error)
	Add(ctx context.Context, userID string, productID int64) error
	Remove(ctx context.Context, userID string, productID int64) error
	Check(ctx context.Context, userID string, productID int64) (bool, error)
}

type FavoritesHandler struct {
	service FavoritesService
	timeout time.Duration
}

func NewFavoritesHandler(service FavoritesService, timeout time.Duration) *FavoritesHandler {
	return &FavoritesHandler{
		service: service,
		timeout: timeout,
	}
}

type AddFavoriteRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type CheckFavoriteResponseDTO struct {
	IsFavorite bool `json:"is_favorite"`
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	marks, err := h.service.List(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if marks == nil {
		marks = []domain.FavoriteMark{}
	}

	respondJSON(w, http.StatusOK, marks)
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddFavoriteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	if err := h.service.Add(ctx, userID, req.ProductID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	if err := h.service.Remove(ctx, userID, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoritesHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	exists, err := h.service.Check(ctx, userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckFavoriteResponseDTO{IsFavorite: exists})
}

func parseProductID(r *http.Request) (int64, error) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		return 0, strconv.ErrSyntax
	}
	return productID, nil
}

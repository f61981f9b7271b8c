package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/server/payments"
)

type PaymentService interface {
	CreateIntent(ctx context.Context, userID string, amount decimal.Decimal) (*payments.Session, error)
	CreateRedirectSession(ctx context.Context, userID string, amount decimal.Decimal, currency string) (*payments.RedirectSession, error)
}

type PaymentHandler struct {
	service PaymentService
	timeout time.Duration
}

func NewPaymentHandler(service PaymentService, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		timeout: timeout,
	}
}

type PaymentIntentRequestDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

type PaymentIntentResponseDTO struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
}

type KlarnaSessionRequestDTO struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type KlarnaSessionResponseDTO struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PaymentIntentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
		return
	}

	session, err := h.service.CreateIntent(ctx, userID, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, PaymentIntentResponseDTO{
		ID:           session.ID,
		ClientSecret: session.ClientSecret,
		Amount:       session.Amount,
	})
}

func (h *PaymentHandler) CreateKlarnaSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req KlarnaSessionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
		return
	}
	if req.Currency == "" {
		respondError(w, http.StatusBadRequest, "invalid_currency", "currency is required")
		return
	}

	session, err := h.service.CreateRedirectSession(ctx, userID, req.Amount, req.Currency)
	if err != nil {
		respondError(w, http.StatusBadGateway, "payment_provider_error", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, KlarnaSessionResponseDTO{
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	})
}

package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RedirectProvider creates a provider-hosted session reachable by URL.
type RedirectProvider interface {
	CreateSession(ctx context.Context, amount decimal.Decimal, currency string) (sessionID, redirectURL string, err error)
}

// Service mints payment-session handles for checkout totals. Handles are
// idempotent per (user, amount): the client's "at most once per total"
// contract holds even when two surfaces race the same request.
type Service struct {
	store  SessionStore
	klarna RedirectProvider
}

func NewService(store SessionStore, klarna RedirectProvider) *Service {
	return &Service{store: store, klarna: klarna}
}

func (s *Service) CreateIntent(ctx context.Context, userID string, amount decimal.Decimal) (*Session, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}

	existing, err := s.store.GetPendingSession(ctx, userID, amount)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check existing session: %w", err)
	}
	if existing != nil {
		// Duplicate request for the same total, return the cached handle
		log.Printf("Duplicate payment-intent request for user %v amount %v, reusing session %v", userID, amount, existing.ID)
		return existing, nil
	}

	session := &Session{
		ID:           "pi_" + uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		ClientSecret: "cs_" + uuid.NewString(),
		Status:       SessionStatusPending,
		CreatedAt:    time.Now(),
	}
	if err := s.store.InsertSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) CreateRedirectSession(ctx context.Context, userID string, amount decimal.Decimal, currency string) (*RedirectSession, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}

	sessionID, redirectURL, err := s.klarna.CreateSession(ctx, amount, currency)
	if err != nil {
		return nil, err
	}

	session := &RedirectSession{
		ID:          sessionID,
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		RedirectURL: redirectURL,
		CreatedAt:   time.Now(),
	}
	if errInsert := s.store.InsertRedirectSession(ctx, session); errInsert != nil {
		// the provider session exists either way; losing the audit row is
		// logged, not fatal to the checkout
		log.Printf("failed to persist redirect session %v: %v", sessionID, errInsert)
	}
	return session, nil
}

package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/store"
)

// ConfirmRequest carries everything a provider may need to drive its
// confirmation protocol for the current attempt.
type ConfirmRequest struct {
	Draft       domain.OrderDraft
	Session     *store.PaymentSession
	BillingName string
}

// ConfirmResult tells the dispatcher what to do with the attempt. Deferred
// means the provider resolves out-of-band (wallet callback, return URL) and
// the attempt stays awaiting confirmation.
type ConfirmResult struct {
	ExternalReference string
	Deferred          bool
}

// Provider is the single confirmation contract every payment method
// implements, instead of per-method branching in the UI layer.
type Provider interface {
	Method() domain.PaymentMethod
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
}

// CardProcessor is the external card SDK collaborator: it confirms a payment
// session against billing details and reports a terminal status.
type CardProcessor interface {
	ConfirmPayment(ctx context.Context, clientSecret, billingName string) (reference string, err error)
}

type cardProvider struct {
	processor CardProcessor
}

func NewCardProvider(processor CardProcessor) Provider {
	return &cardProvider{processor: processor}
}

func (p *cardProvider) Method() domain.PaymentMethod { return domain.PaymentMethodCard }

func (p *cardProvider) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if req.Session == nil {
		return nil, fmt.Errorf("%w: no payment session", domain.ErrPaymentInit)
	}

	ref, err := p.processor.ConfirmPayment(ctx, req.Session.ClientSecret, req.BillingName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentConfirm, err)
	}
	return &ConfirmResult{ExternalReference: ref}, nil
}

type paypalProvider struct{}

// NewPayPalProvider builds the wallet variant. The wallet button drives its
// own success/error callbacks; the dispatcher does not poll — terminal state
// arrives through Dispatcher.HandleWalletResult.
func NewPayPalProvider() Provider {
	return &paypalProvider{}
}

func (p *paypalProvider) Method() domain.PaymentMethod { return domain.PaymentMethodPayPal }

func (p *paypalProvider) Confirm(context.Context, ConfirmRequest) (*ConfirmResult, error) {
	return &ConfirmResult{Deferred: true}, nil
}

// Navigator hands the user's navigation off to an external URL.
type Navigator func(ctx context.Context, url string) error

// KlarnaSessions defines what the klarna variant needs from the store client.
type KlarnaSessions interface {
	CreateKlarnaSession(ctx context.Context, amount decimal.Decimal, currency string) (*store.KlarnaSession, error)
}

type klarnaProvider struct {
	sessions KlarnaSessions
	navigate Navigator
	currency string
}

func NewKlarnaProvider(sessions KlarnaSessions, navigate Navigator, currency string) Provider {
	return &klarnaProvider{sessions: sessions, navigate: navigate, currency: currency}
}

func (p *klarnaProvider) Method() domain.PaymentMethod { return domain.PaymentMethodKlarna }

// Confirm requests a redirect URL sized to the draft total and hands
// navigation to it. Fire-and-forget: completion is observed out-of-band via
// the return URL, not modeled here.
func (p *klarnaProvider) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	session, err := p.sessions.CreateKlarnaSession(ctx, req.Draft.Total, p.currency)
	if err != nil {
		return nil, err
	}

	if err := p.navigate(ctx, session.RedirectURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentConfirm, err)
	}
	return &ConfirmResult{ExternalReference: session.SessionID, Deferred: true}, nil
}

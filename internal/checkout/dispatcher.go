package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/store"
)

// Cart is what the dispatcher needs from the cart engine. It reads only;
// the single mutation is Clear, issued exactly once on confirmed success.
type Cart interface {
	Lines(ctx context.Context) ([]domain.CartLine, error)
	Clear(ctx context.Context) error
}

// IntentStore obtains the external payment-session handle sized to a total.
type IntentStore interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*store.PaymentSession, error)
}

// Dispatcher converts the current cart snapshot into an order draft and
// drives exactly one payment confirmation protocol to a terminal state.
// One attempt is active at a time; submitting again discards a prior
// non-succeeded attempt.
type Dispatcher struct {
	cart      Cart
	intents   IntentStore
	providers map[domain.PaymentMethod]Provider
	sfg       singleflight.Group // collapses concurrent session requests

	mu           sync.Mutex
	draft        *domain.OrderDraft
	session      *store.PaymentSession
	sessionTotal decimal.Decimal
	attempt      domain.PaymentAttempt
}

func NewDispatcher(cart Cart, intents IntentStore, providers ...Provider) *Dispatcher {
	byMethod := make(map[domain.PaymentMethod]Provider, len(providers))
	for _, p := range providers {
		byMethod[p.Method()] = p
	}
	return &Dispatcher{
		cart:      cart,
		intents:   intents,
		providers: byMethod,
		attempt:   domain.PaymentAttempt{Status: domain.AttemptStatusIdle},
	}
}

// Prepare recomputes the draft from the current cart and makes sure a
// payment-session handle sized to the total exists. The handle is requested
// at most once per total value: a resubmission with an unchanged total
// reuses it, a changed total replaces it, and concurrent calls for the same
// total collapse into one request. An empty cart short-circuits before any
// session is requested.
func (d *Dispatcher) Prepare(ctx context.Context) (*domain.OrderDraft, error) {
	lines, err := d.cart.Lines(ctx)
	if err != nil {
		return nil, err
	}

	draft, err := Quote(lines)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.draft = draft
	reuse := d.session != nil && d.sessionTotal.Equal(draft.Total)
	d.mu.Unlock()
	if reuse {
		return draft, nil
	}

	v, err, _ := d.sfg.Do(draft.Total.String(), func() (interface{}, error) {
		return d.intents.CreatePaymentIntent(ctx, draft.Total)
	})
	if err != nil {
		log.Printf("payment session error: %v", err)
		if !errors.Is(err, domain.ErrPaymentInit) {
			err = fmt.Errorf("%w: %v", domain.ErrPaymentInit, err)
		}
		return nil, err
	}

	d.mu.Lock()
	d.session = v.(*store.PaymentSession)
	d.sessionTotal = draft.Total
	d.mu.Unlock()
	return draft, nil
}

// Draft returns the last computed order draft, nil before Prepare.
func (d *Dispatcher) Draft() *domain.OrderDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Attempt returns a copy of the active payment attempt.
func (d *Dispatcher) Attempt() domain.PaymentAttempt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempt
}

// Submit starts a confirmation flow with the selected method. A provider
// failure marks the attempt failed with the provider's reason and leaves the
// cart untouched; the user may resubmit with the same or another method.
func (d *Dispatcher) Submit(ctx context.Context, method domain.PaymentMethod, billingName string) error {
	provider, ok := d.providers[method]
	if !ok {
		return fmt.Errorf("unsupported payment method %q", method)
	}

	d.mu.Lock()
	if d.attempt.Status == domain.AttemptStatusSucceeded {
		d.mu.Unlock()
		return fmt.Errorf("payment already succeeded")
	}
	// starting a new attempt discards any prior non-succeeded one
	d.attempt = domain.PaymentAttempt{Method: method, Status: domain.AttemptStatusInitializing}
	d.mu.Unlock()

	draft, err := d.Prepare(ctx)
	if err != nil {
		d.fail(method, err)
		return err
	}

	d.mu.Lock()
	d.attempt.Status = domain.AttemptStatusAwaiting
	req := ConfirmRequest{Draft: *draft, Session: d.session, BillingName: billingName}
	d.mu.Unlock()

	result, err := provider.Confirm(ctx, req)
	if err != nil {
		d.fail(method, err)
		return err
	}

	if result.Deferred {
		d.mu.Lock()
		if d.attempt.Method == method && d.attempt.Status == domain.AttemptStatusAwaiting {
			d.attempt.ExternalReference = result.ExternalReference
		}
		d.mu.Unlock()
		return nil
	}

	return d.succeed(ctx, method, result.ExternalReference)
}

// HandleWalletResult is the wallet button's success/error callback. It only
// applies while the matching attempt is still awaiting confirmation; a
// callback for an abandoned attempt is dropped.
func (d *Dispatcher) HandleWalletResult(ctx context.Context, reference string, walletErr error) error {
	d.mu.Lock()
	current := d.attempt
	d.mu.Unlock()
	if current.Method != domain.PaymentMethodPayPal || current.Status != domain.AttemptStatusAwaiting {
		log.Printf("wallet callback for inactive attempt dropped (status %s)", current.Status)
		return nil
	}

	if walletErr != nil {
		err := fmt.Errorf("%w: %v", domain.ErrPaymentConfirm, walletErr)
		d.fail(domain.PaymentMethodPayPal, err)
		return err
	}
	return d.succeed(ctx, domain.PaymentMethodPayPal, reference)
}

// Abandon discards the active attempt, e.g. when the user navigates away
// mid-flight. No compensating action: no cart mutation has happened yet.
func (d *Dispatcher) Abandon() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attempt.Status != domain.AttemptStatusSucceeded {
		d.attempt = domain.PaymentAttempt{Status: domain.AttemptStatusIdle}
	}
}

func (d *Dispatcher) succeed(ctx context.Context, method domain.PaymentMethod, reference string) error {
	// Clear first: a failed clear is retried by refetch convergence, but the
	// attempt still terminates succeeded since the charge went through.
	if err := d.cart.Clear(ctx); err != nil {
		log.Printf("cart clear after payment error: %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempt = domain.PaymentAttempt{
		Method:            method,
		ExternalReference: reference,
		Status:            domain.AttemptStatusSucceeded,
	}
	return nil
}

func (d *Dispatcher) fail(method domain.PaymentMethod, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempt = domain.PaymentAttempt{
		Method:        method,
		Status:        domain.AttemptStatusFailed,
		FailureReason: err.Error(),
	}
}

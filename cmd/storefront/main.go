package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/cart"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/checkout"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/favorites"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/session"
	"github.com/kemaltt/EcommercePlatform-sub001/internal/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// demoProcessor stands in for the card SDK: it accepts every confirmation
// and mints a reference. Swap for the real gateway integration.
type demoProcessor struct{}

func (demoProcessor) ConfirmPayment(_ context.Context, _ string, billingName string) (string, error) {
	log.Printf("confirming card payment for %s", billingName)
	return "ch_" + uuid.NewString(), nil
}

func main() {
	_ = godotenv.Load()

	baseURL := getEnv("STORE_API_URL", "http://localhost:8080/api/v1")
	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	token := os.Getenv("SESSION_TOKEN")

	gate := session.NewTokenGate([]byte(jwtSecret))
	if token != "" {
		if err := gate.SetToken(token); err != nil {
			log.Fatalf("invalid session token: %v", err)
		}
	}

	client := store.NewClient(store.Config{
		BaseURL: baseURL,
		Tokens:  gate,
		Timeout: 10 * time.Second,
	})

	cartEngine := cart.NewEngine(gate, client)
	favoritesEngine := favorites.NewEngine(gate, client)

	navigate := func(_ context.Context, url string) error {
		log.Printf("redirecting to hosted payment page: %s", url)
		return nil
	}

	dispatcher := checkout.NewDispatcher(cartEngine, client,
		checkout.NewCardProvider(demoProcessor{}),
		checkout.NewPayPalProvider(),
		checkout.NewKlarnaProvider(client, navigate, checkout.Currency),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lines, err := cartEngine.Lines(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			log.Println("no session token, sign in to load a cart")
		} else {
			log.Printf("cart fetch failed: %v", err)
		}
	}
	log.Printf("cart has %d lines, subtotal %s", len(lines), cartEngine.Subtotal())

	marked, err := favoritesEngine.Products(ctx)
	if err != nil {
		log.Printf("favorites fetch failed: %v", err)
	}
	log.Printf("%d products marked as favorites", len(marked))

	if len(lines) == 0 {
		log.Println("nothing to check out")
		return
	}

	draft, err := dispatcher.Prepare(ctx)
	if err != nil {
		log.Fatalf("checkout preparation failed: %v", err)
	}
	log.Printf("order draft: subtotal %s, shipping %s, taxes %s, total %s %s",
		draft.Subtotal, draft.ShippingCost, draft.Taxes, draft.Total, checkout.Currency)

	if err := dispatcher.Submit(ctx, domain.PaymentMethodCard, getEnv("BILLING_NAME", "demo customer")); err != nil {
		log.Fatalf("payment failed: %v", err)
	}

	attempt := dispatcher.Attempt()
	log.Printf("payment attempt finished: status=%s reference=%s", attempt.Status, attempt.ExternalReference)
}

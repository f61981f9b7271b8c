package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		Tokens:     StaticToken("tok-123"),
		HTTPClient: srv.Client(),
	})
}

func TestFetchCart_AttachesBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)

		cart := domain.Cart{UserID: "u1", Lines: []domain.CartLine{
			{ID: "l1", ProductID: 1, Quantity: 2, Product: domain.ProductSnapshot{ID: 1, Price: decimal.RequireFromString("25.00")}},
		}}
		_ = json.NewEncoder(w).Encode(cart)
	})

	cart, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "l1", cart.Lines[0].ID)
	assert.True(t, cart.Lines[0].Product.Price.Equal(decimal.RequireFromString("25.00")))
}

func TestFetchCart_ServerError_WrapsFetchFailed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "database down"})
	})

	_, err := client.FetchCart(context.Background())
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Contains(t, err.Error(), "database down")
}

func TestAddItem_PostsUpsertBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 7, body["product_id"])
		assert.EqualValues(t, 2, body["quantity"])
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.AddItem(context.Background(), 7, 2))
}

func TestAddItem_Rejection_WrapsMutationFailed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "quantity must be between 1 and 99"})
	})

	err := client.AddItem(context.Background(), 7, 200)
	require.ErrorIs(t, err, domain.ErrMutationFailed)
	assert.Contains(t, err.Error(), "quantity must be between 1 and 99")
}

func TestRemoveLine_NotFoundIsIdempotent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.RemoveLine(context.Background(), "gone"))
}

func TestRemoveFavorite_NotFoundIsIdempotent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/favorites/9", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.RemoveFavorite(context.Background(), 9))
}

func TestCheckFavorite(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/favorites/check/3", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]bool{"is_favorite": true})
	})

	ok, err := client.CheckFavorite(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreatePaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-intent", r.URL.Path)

		var body map[string]decimal.Decimal
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["amount"].Equal(decimal.RequireFromString("59.00")))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "pi_1", "client_secret": "cs_1", "amount": "59",
		})
	})

	session, err := client.CreatePaymentIntent(context.Background(), decimal.RequireFromString("59.00"))
	require.NoError(t, err)
	assert.Equal(t, "pi_1", session.ID)
	assert.Equal(t, "cs_1", session.ClientSecret)
}

func TestCreatePaymentIntent_Failure_WrapsPaymentInit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "processor unavailable"})
	})

	_, err := client.CreatePaymentIntent(context.Background(), decimal.RequireFromString("10.00"))
	require.ErrorIs(t, err, domain.ErrPaymentInit)
}

func TestCreateKlarnaSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/klarna/create-session", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "EUR", body["currency"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"session_id": "klarna_1", "redirect_url": "https://klarna.example/pay/1",
		})
	})

	session, err := client.CreateKlarnaSession(context.Background(), decimal.RequireFromString("59.00"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "https://klarna.example/pay/1", session.RedirectURL)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	failures := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		failures++
		// connection-level failure: hijack and drop
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 6; i++ {
		_, errFetch := client.FetchCart(context.Background())
		require.Error(t, errFetch)
	}

	seen := failures
	_, err := client.FetchCart(context.Background())
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Equal(t, seen, failures, "open breaker must fail fast without hitting the backend")
}

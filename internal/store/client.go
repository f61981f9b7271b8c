package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kemaltt/EcommercePlatform-sub001/internal/domain"
)

// TokenSource supplies the bearer token attached to every request. The
// engines short-circuit unauthenticated calls before reaching the client, so
// an empty token here only means the backend will reject the request itself.
type TokenSource interface {
	Token() string
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

// StaticToken adapts a fixed token string into a TokenSource.
func StaticToken(token string) TokenSource { return staticToken(token) }

type Config struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is the thin request layer against the backend's cart, favorites and
// payment endpoints. All calls go through a circuit breaker so a flapping
// backend trips fast instead of queueing latency into the caller.
type Client struct {
	base    string
	tokens  TokenSource
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
}

type response struct {
	status int
	body   []byte
}

func NewClient(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		base:    cfg.BaseURL,
		tokens:  cfg.Tokens,
		httpc:   httpc,
		breaker: breaker,
	}
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*response, error) {
	return c.breaker.Execute(func() (*response, error) {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal request body: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}

		return &response{status: resp.StatusCode, body: data}, nil
	})
}

// remoteError extracts the backend's error text for user-facing surfacing.
func remoteError(resp *response) error {
	var env errorEnvelope
	if err := json.Unmarshal(resp.body, &env); err == nil && env.Error != "" {
		return fmt.Errorf("store returned %d: %s", resp.status, env.Error)
	}
	return fmt.Errorf("store returned %d", resp.status)
}

func (c *Client) FetchCart(ctx context.Context) (*domain.Cart, error) {
	resp, err := c.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, remoteError(resp))
	}

	var cart domain.Cart
	if err := json.Unmarshal(resp.body, &cart); err != nil {
		return nil, fmt.Errorf("%w: unmarshal cart: %v", domain.ErrFetchFailed, err)
	}
	return &cart, nil
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// AddItem issues the create-or-merge upsert keyed on (user, product).
func (c *Client) AddItem(ctx context.Context, productID int64, quantity int) error {
	resp, err := c.do(ctx, http.MethodPost, "/cart", addItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, remoteError(resp))
	}
	return nil
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) UpdateLine(ctx context.Context, lineID string, quantity int) error {
	resp, err := c.do(ctx, http.MethodPut, "/cart/"+lineID, updateQuantityRequest{Quantity: quantity})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	if resp.status != http.StatusOK {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, remoteError(resp))
	}
	return nil
}

// RemoveLine is idempotent: deleting an already-absent line is not an error.
func (c *Client) RemoveLine(ctx context.Context, lineID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/cart/"+lineID, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusNoContent && resp.status != http.StatusNotFound {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, remoteError(resp))
	}
	return nil
}

func (c *Client) FetchFavorites(ctx context.Context) ([]domain.FavoriteMark, error) {
	resp, err := c.do(ctx, http.MethodGet, "/favorites", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, remoteError(resp))
	}

	var marks []domain.FavoriteMark
	if err := json.Unmarshal(resp.body, &marks); err != nil {
		return nil, fmt.Errorf("%w: unmarshal favorites: %v", domain.ErrFetchFailed, err)
	}
	return marks, nil
}

type addFavoriteRequest struct {
	ProductID int64 `json:"product_id"`
}

func (c *Client) AddFavorite(ctx context.Context, productID int64) error {
	resp, err := c.do(ctx, http.MethodPost, "/favorites", addFavoriteRequest{ProductID: productID})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, remoteError(resp))
	}
	return nil
}

func (c *Client) RemoveFavorite(ctx context.Context, productID int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/favorites/%d", productID), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusNoContent && resp.status != http.StatusNotFound {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, remoteError(resp))
	}
	return nil
}

type checkFavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

func (c *Client) CheckFavorite(ctx context.Context, productID int64) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/favorites/check/%d", productID), nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	if resp.status != http.StatusOK {
		return false, fmt.Errorf("%w: %v", domain.ErrFetchFailed, remoteError(resp))
	}

	var check checkFavoriteResponse
	if err := json.Unmarshal(resp.body, &check); err != nil {
		return false, fmt.Errorf("%w: unmarshal check: %v", domain.ErrFetchFailed, err)
	}
	return check.IsFavorite, nil
}

// PaymentSession is the external payment-session handle sized to a total.
type PaymentSession struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
}

type paymentIntentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (*PaymentSession, error) {
	resp, err := c.do(ctx, http.MethodPost, "/payment-intent", paymentIntentRequest{Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInit, err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInit, remoteError(resp))
	}

	var session PaymentSession
	if err := json.Unmarshal(resp.body, &session); err != nil {
		return nil, fmt.Errorf("%w: unmarshal session: %v", domain.ErrPaymentInit, err)
	}
	return &session, nil
}

// KlarnaSession carries the redirect URL the checkout hands navigation to.
type KlarnaSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type klarnaSessionRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (c *Client) CreateKlarnaSession(ctx context.Context, amount decimal.Decimal, currency string) (*KlarnaSession, error) {
	resp, err := c.do(ctx, http.MethodPost, "/klarna/create-session", klarnaSessionRequest{Amount: amount, Currency: currency})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInit, err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentInit, remoteError(resp))
	}

	var session KlarnaSession
	if err := json.Unmarshal(resp.body, &session); err != nil {
		return nil, fmt.Errorf("%w: unmarshal klarna session: %v", domain.ErrPaymentInit, err)
	}
	return &session, nil
}

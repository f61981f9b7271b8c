package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// KlarnaConfig carries the hosted-payment-page credentials. Amounts go over
// the wire in minor units, per Klarna's API.
type KlarnaConfig struct {
	APIURL    string
	Username  string
	Password  string
	ReturnURL string
}

type KlarnaClient struct {
	cfg   KlarnaConfig
	httpc *http.Client
}

func NewKlarnaClient(cfg KlarnaConfig) *KlarnaClient {
	return &KlarnaClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 15 * time.Second},
	}
}

type klarnaSessionResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
	Error       *struct {
		Code    string `json:"error_code"`
		Message string `json:"error_message"`
	} `json:"error,omitempty"`
}

// CreateSession requests a hosted payment session sized to amount and
// returns the URL checkout hands navigation to.
func (c *KlarnaClient) CreateSession(ctx context.Context, amount decimal.Decimal, currency string) (sessionID, redirectURL string, err error) {
	payload := map[string]interface{}{
		"purchase_currency": currency,
		"order_amount":      amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"merchant_urls": map[string]string{
			"confirmation": c.cfg.ReturnURL,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal klarna payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/payments/v1/sessions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", fmt.Errorf("build klarna request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to reach klarna: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", fmt.Errorf("klarna API error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed klarnaSessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("failed to parse klarna response: %w", err)
	}

	if parsed.Error != nil {
		return "", "", fmt.Errorf("klarna error: %s", parsed.Error.Message)
	}
	if parsed.RedirectURL == "" {
		return "", "", fmt.Errorf("klarna returned empty redirect URL")
	}

	return parsed.SessionID, parsed.RedirectURL, nil
}

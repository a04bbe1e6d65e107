package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
)

// ChargeResult is the normalized tri-field outcome consumed by the ledger.
// The core never inspects gateway-internal objects.
type ChargeResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// Gateway issues charge requests to the external payment provider. Amounts
// are always computed server-side before reaching this boundary.
type Gateway interface {
	Charge(ctx context.Context, paymentMethodRef string, amountCents int64, customerRef string) (*ChargeResult, error)
	CreateRecurring(ctx context.Context, customerRef string, amountCents int64, planName string) (*ChargeResult, error)
}

const defaultGatewayTimeout = 15 * time.Second

// HTTPGateway talks to the payment provider over its REST surface. It is
// constructed explicitly and injected into the billing service so tests can
// substitute a double.
type HTTPGateway struct {
	BaseURL   string
	SecretKey string

	HTTPClient *http.Client
}

// NewHTTPGatewayFromEnv builds a gateway client from process configuration.
func NewHTTPGatewayFromEnv() *HTTPGateway {
	return &HTTPGateway{
		BaseURL:   strings.TrimRight(env.GetEnv("PAYMENT_GATEWAY_URL", ""), "/"),
		SecretKey: strings.TrimSpace(env.GetEnv("PAYMENT_GATEWAY_SECRET", "")),
		HTTPClient: &http.Client{
			Timeout: defaultGatewayTimeout,
		},
	}
}

func (g *HTTPGateway) Charge(ctx context.Context, paymentMethodRef string, amountCents int64, customerRef string) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"payment_method": paymentMethodRef,
		"amount":         amountCents,
		"currency":       "usd",
		"customer":       customerRef,
		"confirm":        true,
	}
	return g.post(ctx, "/charges", payload)
}

func (g *HTTPGateway) CreateRecurring(ctx context.Context, customerRef string, amountCents int64, planName string) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"customer": customerRef,
		"amount":   amountCents,
		"currency": "usd",
		"plan":     planName,
		"interval": "month",
	}
	return g.post(ctx, "/subscriptions", payload)
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload map[string]interface{}) (*ChargeResult, error) {
	if g.BaseURL == "" || g.SecretKey == "" {
		return nil, apperror.New(apperror.KindInternal, "payment gateway is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.SecretKey)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperror.Wrap(apperror.KindUpstreamTimeout, "Payment gateway timed out", err)
		}
		return nil, apperror.Wrap(apperror.KindPaymentFailed, "Payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Wrap(apperror.KindPaymentFailed,
			fmt.Sprintf("Payment gateway returned status %d", resp.StatusCode), errors.New(string(raw)))
	}

	var out ChargeResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperror.Wrap(apperror.KindPaymentFailed, "Payment gateway returned malformed response", err)
	}
	return &out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
)

// StripeGateway treats the reference as a Checkout Session id and maps the
// session onto gateway statuses.
type StripeGateway struct {
	sessions session.Client
}

// NewStripeGateway builds a gateway with its own backend. baseURL may be
// empty to use the public API.
func NewStripeGateway(secretKey, baseURL string, httpClient *http.Client) *StripeGateway {
	cfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if baseURL != "" {
		cfg.URL = stripe.String(baseURL)
	}
	return &StripeGateway{
		sessions: session.Client{B: stripe.GetBackendWithConfig(stripe.APIBackend, cfg), Key: secretKey},
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) VerifyTransaction(ctx context.Context, reference string) (GatewayResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(reference, params)
	if err != nil {
		var result GatewayResult
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			if raw, mErr := json.Marshal(stripeErr); mErr == nil {
				result.Raw = raw
			}
		}
		return result, fmt.Errorf("stripe session lookup: %w", err)
	}

	var result GatewayResult
	if s.LastResponse != nil && json.Valid(s.LastResponse.RawJSON) {
		result.Raw = s.LastResponse.RawJSON
	}
	result.Status = sessionStatus(s)
	result.Amount = s.AmountTotal
	result.Currency = string(s.Currency)
	return result, nil
}

func sessionStatus(s *stripe.CheckoutSession) string {
	switch {
	case s.Status == stripe.CheckoutSessionStatusComplete &&
		(s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired):
		return GatewaySuccess
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return GatewayAbandoned
	default:
		return GatewayPending
	}
}

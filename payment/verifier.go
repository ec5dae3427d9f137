package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultVerifyTimeout bounds a gateway verify call when none is configured.
const DefaultVerifyTimeout = 10 * time.Second

// Gateway statuses as reported by the provider, lower-cased.
const (
	GatewaySuccess   = "success"
	GatewayFailed    = "failed"
	GatewayAbandoned = "abandoned"
	GatewayReversed  = "reversed"
	GatewayPending   = "pending"
)

// GatewayResult is what a gateway answered for a reference. Raw may be set
// even when VerifyTransaction also returns an error. Amount is in the
// currency's minor unit.
type GatewayResult struct {
	Status   string
	Amount   int64
	Currency string
	Raw      []byte
}

// Gateway asks a payment provider about one transaction reference.
type Gateway interface {
	Name() string
	VerifyTransaction(ctx context.Context, reference string) (GatewayResult, error)
}

// Verifier runs gateway calls under a timeout and maps the answer onto the
// verification state machine. It never retries.
type Verifier struct {
	gateway Gateway
	timeout time.Duration
	logger  *zap.Logger
}

func NewVerifier(gateway Gateway, timeout time.Duration, logger *zap.Logger) *Verifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &Verifier{gateway: gateway, timeout: timeout, logger: logger}
}

func (v *Verifier) Verify(ctx context.Context, reference string) PaymentVerification {
	result := PaymentVerification{Reference: reference, Status: StatusInitiated}
	_ = result.advance(StatusVerifying)

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	gr, err := v.gateway.VerifyTransaction(ctx, reference)
	result.Raw = gr.Raw
	result.Amount = decimal.New(gr.Amount, -2)
	result.Currency = strings.ToUpper(gr.Currency)

	var to Status
	switch {
	case err != nil:
		to = StatusErrored
		result.Err = err
		result.Reason = "gateway unavailable"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Reason = "gateway timeout"
		}
	default:
		to, result.Reason = classify(gr.Status)
	}
	_ = result.advance(to)

	fields := []zap.Field{
		zap.String("gateway", v.gateway.Name()),
		zap.String("reference", reference),
		zap.String("status", string(result.Status)),
		zap.String("amount", result.Amount.StringFixed(2)),
		zap.Duration("duration", time.Since(start)),
	}
	if result.Status == StatusConfirmed {
		v.logger.Info("payment verified", fields...)
	} else {
		v.logger.Warn("payment not confirmed", append(fields, zap.String("reason", result.Reason), zap.Error(result.Err))...)
	}
	return result
}

func classify(gatewayStatus string) (Status, string) {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case GatewaySuccess:
		return StatusConfirmed, ""
	case GatewayFailed, GatewayAbandoned, GatewayReversed:
		return StatusRejected, "payment " + strings.ToLower(gatewayStatus)
	default:
		// pending, ongoing, queued and anything unknown: ask again later.
		return StatusErrored, "payment not settled: " + gatewayStatus
	}
}

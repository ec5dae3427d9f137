package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yashrajoria/storefront-service/cache"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/events"
	"github.com/yashrajoria/storefront-service/metrics"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/payment"
	"go.uber.org/zap"
)

const (
	verifyLockTTL  = 2 * time.Minute
	publishTimeout = 5 * time.Second
)

// PaymentVerifier is satisfied by *payment.Verifier.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) payment.PaymentVerification
}

// PaymentService finalizes a checkout when the gateway redirects back.
type PaymentService interface {
	// VerifyOrder confirms reference with the gateway and, only when the
	// payment is confirmed, records the order and empties the cart. The
	// verification is returned on every path where the gateway was asked.
	VerifyOrder(ctx context.Context, user models.CurrentUser, reference string) (payment.PaymentVerification, *models.Order, error)
}

type paymentServiceImpl struct {
	verifier  PaymentVerifier
	orders    OrderService
	checkout  CheckoutService
	locker    cache.Locker
	publisher events.Publisher
	recorder  *metrics.Recorder
	logger    *zap.Logger
}

func NewPaymentService(
	verifier PaymentVerifier,
	orders OrderService,
	checkout CheckoutService,
	locker cache.Locker,
	publisher events.Publisher,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) PaymentService {
	if locker == nil {
		locker = cache.NoopLocker{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &paymentServiceImpl{
		verifier:  verifier,
		orders:    orders,
		checkout:  checkout,
		locker:    locker,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
	}
}

func (s *paymentServiceImpl) VerifyOrder(ctx context.Context, user models.CurrentUser, reference string) (payment.PaymentVerification, *models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return payment.PaymentVerification{}, nil, apperrors.Validation("payment reference is required", nil)
	}

	// The side effect must complete even if the client goes away.
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("user_id", user.ID.String()), zap.String("reference", reference))

	release, err := s.locker.Acquire(ctx, "lock:verify:"+reference, verifyLockTTL)
	switch {
	case errors.Is(err, cache.ErrLockHeld):
		return payment.PaymentVerification{}, nil, apperrors.Conflict("verification already in progress")
	case err != nil:
		log.Warn("verification lock unavailable, relying on unique reference", zap.Error(err))
	default:
		defer func() {
			if err := release(ctx); err != nil {
				log.Warn("release verification lock failed", zap.Error(err))
			}
		}()
	}

	v := s.verifier.Verify(ctx, reference)
	s.recorder.PaymentVerified(ctx, string(v.Status))

	switch v.Status {
	case payment.StatusConfirmed:
	case payment.StatusRejected:
		return v, nil, apperrors.PaymentRejected("payment was not successful")
	default:
		return v, nil, apperrors.PaymentUnavailable("payment could not be verified, try again later", v.Err)
	}

	existing, err := s.orders.FindByReference(ctx, reference)
	if err != nil {
		return v, nil, err
	}
	if existing != nil {
		if !existing.OwnedBy(user.ID) {
			log.Warn("payment reference already used by another user")
			// The gateway payload belongs to the payer, not the caller.
			return payment.PaymentVerification{Reference: v.Reference, Status: v.Status}, nil,
				apperrors.Unauthorized("payment reference belongs to another user")
		}
		return v, existing, nil
	}

	view, err := s.checkout.BuildCheckoutView(ctx, user)
	if err != nil {
		return v, nil, err
	}
	if len(view.Lines) == 0 {
		return v, nil, apperrors.Validation("cart is empty", nil)
	}
	if !v.Amount.Equal(view.TotalPrice) {
		log.Warn("paid amount does not match cart total",
			zap.String("paid", v.Amount.StringFixed(2)),
			zap.String("currency", v.Currency),
			zap.String("cart_total", view.TotalPrice.StringFixed(2)),
		)
		return v, nil, apperrors.Conflict("paid amount does not match cart total")
	}

	order, err := s.orders.CreateOrder(ctx, user, view, reference)
	if err != nil {
		return v, nil, err
	}

	s.publish(ctx, *order, log)
	return v, order, nil
}

func (s *paymentServiceImpl) publish(ctx context.Context, order models.Order, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderCreated(ctx, events.NewOrderCreated(order)); err != nil {
		log.Error("publish order.created failed", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

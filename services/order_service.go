package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/metrics"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/repository"
	"go.uber.org/zap"
)

// OrderService is the order ledger. Orders are written once and never
// updated.
type OrderService interface {
	// CreateOrder snapshots view into a new order and removes the ordered
	// quantities from the user's cart in the same transaction. A second call with the same reference returns
	// the order created by the first and changes nothing.
	CreateOrder(ctx context.Context, user models.CurrentUser, view models.CheckoutView, reference string) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindOrder(ctx context.Context, orderID string) (*models.Order, error)
	// FindByReference returns (nil, nil) when no order carries reference.
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
}

type orderServiceImpl struct {
	store    repository.Store
	recorder *metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(store repository.Store, recorder *metrics.Recorder, logger *zap.Logger) OrderService {
	return &orderServiceImpl{store: store, recorder: recorder, logger: logger, now: time.Now}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, user models.CurrentUser, view models.CheckoutView, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.Validation("payment reference is required", nil)
	}
	if len(view.Lines) == 0 {
		return nil, apperrors.Validation("cart is empty", nil)
	}

	order := models.NewOrder(user, view, reference, s.now())
	result := order
	created := false

	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		ok, err := tx.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		if !ok {
			existing, err := tx.Orders().FindByReference(ctx, reference)
			if err != nil {
				return err
			}
			result = existing
			return nil
		}
		created = true
		return tx.Carts().RemoveOrdered(ctx, user.ID, orderedItems(view))
	})
	if err != nil {
		s.logger.Error("create order failed",
			zap.String("user_id", user.ID.String()),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return nil, apperrors.Storage(err)
	}

	if !result.OwnedBy(user.ID) {
		return nil, apperrors.Unauthorized("payment reference belongs to another user")
	}
	if created {
		s.recorder.OrderCreated(ctx)
		s.logger.Info("order created",
			zap.String("order_id", result.ID.String()),
			zap.String("user_id", user.ID.String()),
			zap.String("reference", reference),
			zap.String("total", result.TotalPrice().StringFixed(2)),
		)
	}
	return result, nil
}

func orderedItems(view models.CheckoutView) []models.CartItem {
	items := make([]models.CartItem, 0, len(view.Lines))
	for _, l := range view.Lines {
		items = append(items, models.CartItem{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	return items
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.store.Orders().FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return orders, nil
}

func (s *orderServiceImpl) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil {
		return nil, apperrors.Validation("invalid order id", err)
	}
	order, err := s.store.Orders().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return order, nil
}

func (s *orderServiceImpl) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	order, err := s.store.Orders().FindByReference(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return order, nil
}

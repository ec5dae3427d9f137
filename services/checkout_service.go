package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/storefront-service/catalog"
	"github.com/yashrajoria/storefront-service/common/logger"
	"github.com/yashrajoria/storefront-service/models"
	"go.uber.org/zap"
)

type CheckoutService interface {
	// BuildCheckoutView prices the user's cart against the current catalog.
	// Lines whose product no longer exists are dropped.
	BuildCheckoutView(ctx context.Context, user models.CurrentUser) (models.CheckoutView, error)
}

type checkoutServiceImpl struct {
	carts   CartService
	catalog catalog.Catalog
	logger  *zap.Logger
}

func NewCheckoutService(carts CartService, cat catalog.Catalog, logger *zap.Logger) CheckoutService {
	return &checkoutServiceImpl{carts: carts, catalog: cat, logger: logger}
}

func (s *checkoutServiceImpl) BuildCheckoutView(ctx context.Context, user models.CurrentUser) (models.CheckoutView, error) {
	cart, err := s.carts.GetCart(ctx, user)
	if err != nil {
		return models.CheckoutView{}, err
	}

	view := models.CheckoutView{
		Lines:      make([]models.CheckoutLine, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
		UserEmail:  user.Email,
	}
	for _, item := range cart.Items {
		product, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			return models.CheckoutView{}, err
		}
		if product == nil {
			logger.FromContext(ctx, s.logger).Warn("skipping cart line for missing product",
				zap.String("user_id", user.ID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
			continue
		}
		line := models.CheckoutLine{Quantity: item.Quantity, Product: *product}
		view.Lines = append(view.Lines, line)
		view.TotalPrice = view.TotalPrice.Add(line.Subtotal())
	}
	return view, nil
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/catalog"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/metrics"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/repository"
	"go.uber.org/zap"
)

// CartService owns the per-user cart. Every mutation is a single statement
// against the store.
type CartService interface {
	GetCart(ctx context.Context, user models.CurrentUser) (models.Cart, error)
	AddToCart(ctx context.Context, user models.CurrentUser, productID string, quantity int) (models.Cart, error)
	RemoveFromCart(ctx context.Context, user models.CurrentUser, productID string) (models.Cart, error)
	ClearCart(ctx context.Context, user models.CurrentUser) error
}

type cartServiceImpl struct {
	store    repository.Store
	catalog  catalog.Catalog
	recorder *metrics.Recorder
	logger   *zap.Logger
}

func NewCartService(store repository.Store, cat catalog.Catalog, recorder *metrics.Recorder, logger *zap.Logger) CartService {
	return &cartServiceImpl{store: store, catalog: cat, recorder: recorder, logger: logger}
}

// ParseProductID validates a product id coming from a request.
func ParseProductID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid product id", err)
	}
	return id, nil
}

// requireUser maps a missing user row to NotFound.
func (s *cartServiceImpl) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.store.Users().Exists(ctx, userID)
	if err != nil {
		return apperrors.Storage(err)
	}
	if !exists {
		return apperrors.NotFound("user not found")
	}
	return nil
}

func (s *cartServiceImpl) GetCart(ctx context.Context, user models.CurrentUser) (models.Cart, error) {
	if err := s.requireUser(ctx, user.ID); err != nil {
		return models.Cart{}, err
	}
	return s.load(ctx, user.ID)
}

func (s *cartServiceImpl) load(ctx context.Context, userID uuid.UUID) (models.Cart, error) {
	items, err := s.store.Carts().Items(ctx, userID)
	if err != nil {
		return models.Cart{}, apperrors.Storage(err)
	}
	return models.Cart{UserID: userID, Items: items}, nil
}

func (s *cartServiceImpl) AddToCart(ctx context.Context, user models.CurrentUser, productID string, quantity int) (models.Cart, error) {
	pid, err := ParseProductID(productID)
	if err != nil {
		return models.Cart{}, err
	}
	if quantity < 1 {
		return models.Cart{}, apperrors.Validation("quantity must be at least 1", nil)
	}

	if err := s.requireUser(ctx, user.ID); err != nil {
		return models.Cart{}, err
	}

	product, err := s.catalog.FindByID(ctx, pid)
	if err != nil {
		return models.Cart{}, err
	}
	if product == nil {
		return models.Cart{}, apperrors.NotFound("product not found")
	}

	if err := s.store.Carts().AddItem(ctx, user.ID, pid, quantity); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Cart{}, apperrors.NotFound("user not found")
		}
		s.logger.Error("add to cart failed", zap.String("user_id", user.ID.String()), zap.String("product_id", pid.String()), zap.Error(err))
		return models.Cart{}, apperrors.Storage(err)
	}
	s.recorder.CartMutated(ctx, "add")

	return s.load(ctx, user.ID)
}

func (s *cartServiceImpl) RemoveFromCart(ctx context.Context, user models.CurrentUser, productID string) (models.Cart, error) {
	pid, err := ParseProductID(productID)
	if err != nil {
		return models.Cart{}, err
	}
	if err := s.requireUser(ctx, user.ID); err != nil {
		return models.Cart{}, err
	}
	if err := s.store.Carts().RemoveItem(ctx, user.ID, pid); err != nil {
		return models.Cart{}, apperrors.Storage(err)
	}
	s.recorder.CartMutated(ctx, "remove")

	return s.load(ctx, user.ID)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, user models.CurrentUser) error {
	if err := s.requireUser(ctx, user.ID); err != nil {
		return err
	}
	if err := s.store.Carts().Clear(ctx, user.ID); err != nil {
		return apperrors.Storage(err)
	}
	s.recorder.CartMutated(ctx, "clear")
	return nil
}

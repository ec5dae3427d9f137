package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/models"
	"gorm.io/gorm"
)

// CartRepository mutates cart lines with single statements so concurrent
// requests for the same user cannot lose updates.
type CartRepository interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	RemoveOrdered(ctx context.Context, userID uuid.UUID, ordered []models.CartItem) error
	Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

const upsertCartItemSQL = `INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
VALUES (?, ?, ?, NOW(), NOW())
ON CONFLICT (user_id, product_id)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()`

// AddItem inserts the line or increments its quantity in one statement.
func (r *GormCartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	err := r.db.WithContext(ctx).Exec(upsertCartItemSQL, userID, productID, quantity).Error
	if err != nil && pgErrorCode(err) == pgForeignKeyViolation {
		return ErrUserNotFound
	}
	return err
}

// RemoveItem deletes the line if present. Deleting nothing is not an error.
func (r *GormCartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

func (r *GormCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

const (
	deleteConsumedLineSQL = `DELETE FROM cart_items WHERE user_id = ? AND product_id = ? AND quantity <= ?`
	decrementLineSQL      = `UPDATE cart_items SET quantity = quantity - ?, updated_at = NOW()
WHERE user_id = ? AND product_id = ? AND quantity > ?`
)

// RemoveOrdered takes each ordered quantity off the matching line and drops
// lines that reach zero. Lines and quantity added after the order was priced
// stay in the cart. Run it inside the order transaction.
func (r *GormCartRepository) RemoveOrdered(ctx context.Context, userID uuid.UUID, ordered []models.CartItem) error {
	db := r.db.WithContext(ctx)
	for _, item := range ordered {
		if err := db.Exec(deleteConsumedLineSQL, userID, item.ProductID, item.Quantity).Error; err != nil {
			return err
		}
		if err := db.Exec(decrementLineSQL, item.Quantity, userID, item.ProductID, item.Quantity).Error; err != nil {
			return err
		}
	}
	return nil
}

// Items returns the lines in the order they were first added.
func (r *GormCartRepository) Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, product_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// Create inserts the order and its lines. It reports false, and writes
	// nothing, when an order with the same payment reference already exists.
	Create(ctx context.Context, order *models.Order) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func linesInPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_reference"}},
			DoNothing: true,
		}).
		Create(order)
	if res.Error != nil {
		if pgErrorCode(res.Error) == pgUniqueViolation {
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if len(order.Lines) == 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Create(&order.Lines).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormOrderRepository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	return r.findOne(ctx, "payment_reference = ?", reference)
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", linesInPosition).
		Where(query, arg).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserID returns the user's orders, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", linesInPosition).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

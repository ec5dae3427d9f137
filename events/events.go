// Package events publishes order lifecycle notifications for other services.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/storefront-service/models"
)

const TypeOrderCreated = "order.created"

type OrderCreated struct {
	Type             string          `json:"type"`
	OrderID          string          `json:"orderId"`
	UserID           string          `json:"userId"`
	Email            string          `json:"email"`
	PaymentReference string          `json:"paymentReference"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	ItemCount        int             `json:"itemCount"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func NewOrderCreated(order models.Order) OrderCreated {
	return OrderCreated{
		Type:             TypeOrderCreated,
		OrderID:          order.ID.String(),
		UserID:           order.User.UserID.String(),
		Email:            order.User.Email,
		PaymentReference: order.PaymentReference,
		TotalPrice:       order.TotalPrice(),
		ItemCount:        order.ItemCount(),
		CreatedAt:        order.CreatedAt,
	}
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, evt OrderCreated) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishOrderCreated(context.Context, OrderCreated) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }

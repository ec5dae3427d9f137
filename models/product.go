package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog's view of a product at read time.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
}

// Snapshot copies the fields an order keeps forever.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ProductID:   p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

// CheckoutLine is a cart line resolved against the catalog.
type CheckoutLine struct {
	Quantity int     `json:"quantity"`
	Product  Product `json:"product"`
}

// Subtotal is quantity times the current price.
func (l CheckoutLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CheckoutView is the priced cart shown before payment.
type CheckoutView struct {
	Lines      []CheckoutLine  `json:"products"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	UserEmail  string          `json:"userEmail,omitempty"`
}

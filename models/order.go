package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderUser is the buyer identity stamped on an order at creation.
type OrderUser struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Email  string    `gorm:"column:user_email;type:varchar(255);not null" json:"email"`
}

// ProductSnapshot is a copy of catalog data taken when the order was placed.
// It is never refreshed from the catalog.
type ProductSnapshot struct {
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	Title       string          `gorm:"column:product_title;type:varchar(255);not null" json:"title"`
	Price       decimal.Decimal `gorm:"column:product_price;type:numeric(12,2);not null" json:"price"`
	Description string          `gorm:"column:product_description;type:text" json:"description"`
	ImageURL    string          `gorm:"column:product_image_url;type:text" json:"imageUrl"`
}

// Order is immutable once created. The total is never stored; see TotalPrice.
type Order struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	User             OrderUser   `gorm:"embedded" json:"user"`
	PaymentReference string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"paymentReference"`
	Lines            []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	CreatedAt        time.Time   `gorm:"not null;index" json:"createdAt"`
}

// OrderLine is one product of an order.
type OrderLine struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	OrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position int             `gorm:"not null" json:"-"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Product  ProductSnapshot `gorm:"embedded" json:"product"`
}

// TotalPrice is Σ quantity × price over the order's own lines.
func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ItemCount is the number of units across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// OwnedBy reports whether userID placed the order.
func (o Order) OwnedBy(userID uuid.UUID) bool {
	return o.User.UserID == userID
}

// NewOrder snapshots every line of view into a fresh order for user.
func NewOrder(user CurrentUser, view CheckoutView, reference string, now time.Time) *Order {
	order := &Order{
		ID:               uuid.New(),
		User:             OrderUser{UserID: user.ID, Email: user.Email},
		PaymentReference: reference,
		CreatedAt:        now.UTC(),
		Lines:            make([]OrderLine, 0, len(view.Lines)),
	}
	for i, l := range view.Lines {
		order.Lines = append(order.Lines, OrderLine{
			ID:       uuid.New(),
			OrderID:  order.ID,
			Position: i,
			Quantity: l.Quantity,
			Product:  l.Product.Snapshot(),
		})
	}
	return order
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart. The composite primary key keeps at
// most one line per product.
type CartItem struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey" json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Cart is the ordered set of lines owned by one user.
type Cart struct {
	UserID uuid.UUID  `json:"userId"`
	Items  []CartItem `json:"items"`
}

// Quantity returns the quantity of productID, or 0 when it is not in the cart.
func (c Cart) Quantity(productID uuid.UUID) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

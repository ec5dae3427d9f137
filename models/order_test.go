package models_test

import (
	"testing"
	"time"

	"github.com/yashrajoria/storefront-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewOrder_TotalMatchesLines(t *testing.T) {
	user := models.CurrentUser{ID: uuid.New(), Email: "ada@example.com"}
	view := models.CheckoutView{
		Lines: []models.CheckoutLine{
			{Quantity: 2, Product: models.Product{ID: uuid.New(), Title: "Book", Price: decimal.RequireFromString("12.50")}},
			{Quantity: 1, Product: models.Product{ID: uuid.New(), Title: "Pen", Price: decimal.RequireFromString("0.99")}},
		},
		TotalPrice: decimal.RequireFromString("25.99"),
	}

	order := models.NewOrder(user, view, "ref-1", time.Now())

	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, user.ID, order.User.UserID)
	assert.Equal(t, "ada@example.com", order.User.Email)
	assert.Equal(t, "ref-1", order.PaymentReference)
	assert.Len(t, order.Lines, 2)
	assert.True(t, view.TotalPrice.Equal(order.TotalPrice()), "got %s", order.TotalPrice())
	assert.Equal(t, 3, order.ItemCount())
	for i, l := range order.Lines {
		assert.Equal(t, order.ID, l.OrderID)
		assert.Equal(t, i, l.Position)
	}
}

func TestNewOrder_SnapshotIsDetachedFromCatalog(t *testing.T) {
	product := models.Product{ID: uuid.New(), Title: "Lamp", Price: decimal.NewFromInt(10)}
	view := models.CheckoutView{Lines: []models.CheckoutLine{{Quantity: 1, Product: product}}}

	order := models.NewOrder(models.CurrentUser{ID: uuid.New()}, view, "ref", time.Now())
	product.Price = decimal.NewFromInt(99)
	view.Lines[0].Product.Title = "Changed"

	assert.True(t, decimal.NewFromInt(10).Equal(order.Lines[0].Product.Price))
	assert.Equal(t, "Lamp", order.Lines[0].Product.Title)
}

func TestOrder_OwnedBy(t *testing.T) {
	owner := uuid.New()
	order := models.Order{User: models.OrderUser{UserID: owner}}

	assert.True(t, order.OwnedBy(owner))
	assert.False(t, order.OwnedBy(uuid.New()))
}

func TestCart_Quantity(t *testing.T) {
	p := uuid.New()
	cart := models.Cart{Items: []models.CartItem{{ProductID: p, Quantity: 3}}}

	assert.Equal(t, 3, cart.Quantity(p))
	assert.Equal(t, 0, cart.Quantity(uuid.New()))
	assert.False(t, cart.IsEmpty())
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-service/services"
)

type CartController struct {
	carts    services.CartService
	checkout services.CheckoutService
}

func NewCartController(carts services.CartService, checkout services.CheckoutService) *CartController {
	return &CartController{carts: carts, checkout: checkout}
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Quantity  *int   `json:"quantity" binding:"omitempty,min=1"`
}

type removeFromCartRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
}

// GetCart handles GET /cart
func (cc *CartController) GetCart(c *gin.Context) {
	cc.respondWithCart(c, http.StatusOK)
}

// AddToCart handles POST /cart
func (cc *CartController) AddToCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	if _, err := cc.carts.AddToCart(c.Request.Context(), user, req.ProductID, qty); err != nil {
		respondError(c, err)
		return
	}
	cc.respondWithCart(c, http.StatusOK)
}

// RemoveFromCart handles POST /cart-delete-item
func (cc *CartController) RemoveFromCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req removeFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if _, err := cc.carts.RemoveFromCart(c.Request.Context(), user, req.ProductID); err != nil {
		respondError(c, err)
		return
	}
	cc.respondWithCart(c, http.StatusOK)
}

func (cc *CartController) respondWithCart(c *gin.Context, status int) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := cc.checkout.BuildCheckoutView(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"products": view.Lines, "totalPrice": view.TotalPrice})
}

// Checkout handles GET /checkout
func (cc *CartController) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := cc.checkout.BuildCheckoutView(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-service/controllers"
)

// RegisterProductRoutes exposes catalog browsing without authentication.
func RegisterProductRoutes(r *gin.Engine, pc *controllers.ProductController) {
	r.GET("/products", pc.ListProducts)
	r.GET("/products/:productId", pc.GetProduct)
}

// RegisterShopRoutes mounts the cart, checkout and order routes behind auth.
func RegisterShopRoutes(r *gin.Engine, auth gin.HandlerFunc, cc *controllers.CartController, oc *controllers.OrderController) {
	shop := r.Group("/", auth)
	{
		shop.GET("/cart", cc.GetCart)
		shop.POST("/cart", cc.AddToCart)
		shop.POST("/cart-delete-item", cc.RemoveFromCart)
		shop.GET("/checkout", cc.Checkout)

		shop.GET("/verify-order", oc.VerifyOrder)
		shop.GET("/orders", oc.ListOrders)
		shop.GET("/orders/:orderId", oc.GetInvoice)
	}
}

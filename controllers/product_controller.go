package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-service/catalog"
	apperrors "github.com/yashrajoria/storefront-service/common/errors"
	"github.com/yashrajoria/storefront-service/services"
)

// ProductController exposes read-only catalog browsing.
type ProductController struct {
	catalog  catalog.Catalog
	pageSize int
}

func NewProductController(cat catalog.Catalog, pageSize int) *ProductController {
	return &ProductController{catalog: cat, pageSize: catalog.NormalizePageSize(pageSize)}
}

// ListProducts handles GET /products?page=
func (pc *ProductController) ListProducts(c *gin.Context) {
	page := catalog.ParsePage(c.Query("page"))

	result, err := pc.catalog.List(c.Request.Context(), page, pc.pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   result.Items,
		"pagination": catalog.NewPagination(page, pc.pageSize, result.TotalCount),
	})
}

// GetProduct handles GET /products/:productId
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := pc.catalog.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if product == nil {
		respondError(c, apperrors.NotFound("product not found"))
		return
	}
	c.JSON(http.StatusOK, product)
}

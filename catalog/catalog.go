// Package catalog is the storefront's read-only view of the product catalog.
// The catalog itself is owned elsewhere; this package adapts it.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/models"
)

// Catalog looks products up. FindByID returns (nil, nil) for a product that
// does not exist or was deleted.
type Catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, page, pageSize int) (Page, error)
}

// Page is one slice of the catalog plus the total number of products.
type Page struct {
	Items      []models.Product `json:"items"`
	TotalCount int64            `json:"totalCount"`
}

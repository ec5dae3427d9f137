package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/cache"
	"github.com/yashrajoria/storefront-service/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// JSONCache is the storage used by CachedCatalog.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}) error
}

// CachedCatalog is a cache-aside decorator. Concurrent misses for one key
// share a single upstream call, and cache failures fall through to the
// underlying catalog.
type CachedCatalog struct {
	next   Catalog
	cache  JSONCache
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachedCatalog(next Catalog, c JSONCache, logger *zap.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, cache: c, logger: logger}
}

func productKey(id uuid.UUID) string { return "catalog:product:" + id.String() }

func pageKey(page, size int) string { return fmt.Sprintf("catalog:page:%d:%d", page, size) }

func (c *CachedCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key := productKey(id)

	var cached models.Product
	err := c.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := c.next.FindByID(ctx, id)
		if err != nil || p == nil {
			return p, err
		}
		if err := c.cache.SetJSON(ctx, key, p); err != nil {
			c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

func (c *CachedCatalog) List(ctx context.Context, page, pageSize int) (Page, error) {
	page, pageSize = NormalizePage(page), NormalizePageSize(pageSize)
	key := pageKey(page, pageSize)

	var cached Page
	err := c.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := c.next.List(ctx, page, pageSize)
		if err != nil {
			return Page{}, err
		}
		if err := c.cache.SetJSON(ctx, key, p); err != nil {
			c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

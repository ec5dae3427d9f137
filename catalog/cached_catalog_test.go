package catalog_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yashrajoria/storefront-service/cache"
	"github.com/yashrajoria/storefront-service/catalog"
	"github.com/yashrajoria/storefront-service/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]models.Product
	finds    atomic.Int32
	lists    atomic.Int32
	delay    time.Duration
}

func (c *countingCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	c.finds.Add(1)
	time.Sleep(c.delay)
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *countingCatalog) List(_ context.Context, page, pageSize int) (catalog.Page, error) {
	c.lists.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		items = append(items, p)
	}
	return catalog.Page{Items: items, TotalCount: int64(len(items))}, nil
}

func newCached(t *testing.T, next catalog.Catalog) (*catalog.CachedCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewCachedCatalog(next, cache.NewRedisCache(client, time.Minute), zap.NewNop()), mr
}

func TestCachedCatalog_FindByID_HitsUpstreamOnce(t *testing.T) {
	id := uuid.New()
	upstream := &countingCatalog{products: map[uuid.UUID]models.Product{
		id: {ID: id, Title: "Atlas", Price: decimal.RequireFromString("10.00")},
	}}
	c, mr := newCached(t, upstream)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Atlas", p.Title)
		assert.True(t, decimal.NewFromInt(10).Equal(p.Price))
	}

	assert.Equal(t, int32(1), upstream.finds.Load())
	assert.True(t, mr.Exists("catalog:product:"+id.String()))
}

func TestCachedCatalog_FindByID_MissingIsNotCached(t *testing.T) {
	upstream := &countingCatalog{products: map[uuid.UUID]models.Product{}}
	c, _ := newCached(t, upstream)
	id := uuid.New()

	for i := 0; i < 2; i++ {
		p, err := c.FindByID(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, p)
	}
	assert.Equal(t, int32(2), upstream.finds.Load())
}

func TestCachedCatalog_FindByID_CollapsesConcurrentMisses(t *testing.T) {
	id := uuid.New()
	upstream := &countingCatalog{
		products: map[uuid.UUID]models.Product{id: {ID: id, Title: "Atlas"}},
		delay:    50 * time.Millisecond,
	}
	c, _ := newCached(t, upstream)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.FindByID(context.Background(), id)
			assert.NoError(t, err)
			assert.NotNil(t, p)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), upstream.finds.Load())
}

func TestCachedCatalog_FallsThroughWhenRedisDown(t *testing.T) {
	id := uuid.New()
	upstream := &countingCatalog{products: map[uuid.UUID]models.Product{id: {ID: id, Title: "Atlas"}}}
	c, mr := newCached(t, upstream)
	mr.Close()

	p, err := c.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Atlas", p.Title)
}

func TestCachedCatalog_List(t *testing.T) {
	upstream := &countingCatalog{products: map[uuid.UUID]models.Product{uuid.New(): {Title: "A"}}}
	c, _ := newCached(t, upstream)

	for i := 0; i < 2; i++ {
		page, err := c.List(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalCount)
	}
	assert.Equal(t, int32(1), upstream.lists.Load())
}

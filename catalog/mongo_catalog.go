package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yashrajoria/storefront-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "products"

type productDocument struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Price       float64    `bson:"price"`
	Description string     `bson:"description"`
	ImageURL    string     `bson:"image_url"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty"`
}

func (d productDocument) toModel() (models.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %q has a malformed id: %w", d.ID, err)
	}
	return models.Product{
		ID:          id,
		Title:       d.Title,
		Price:       decimal.NewFromFloat(d.Price).Round(2),
		Description: d.Description,
		ImageURL:    d.ImageURL,
	}, nil
}

// MongoCatalog reads products straight from the catalog's MongoDB collection.
// Soft-deleted products are invisible.
type MongoCatalog struct {
	collection *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{collection: db.Collection(productsCollection)}
}

func liveFilter() bson.M {
	return bson.M{"deleted_at": bson.M{"$exists": false}}
}

func (c *MongoCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	filter := liveFilter()
	filter["_id"] = id.String()

	var doc productDocument
	err := c.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}

	p, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *MongoCatalog) List(ctx context.Context, page, pageSize int) (Page, error) {
	pageSize = NormalizePageSize(pageSize)
	filter := liveFilter()

	total, err := c.collection.CountDocuments(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(Offset(page, pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := c.collection.Find(ctx, filter, opts)
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return Page{}, fmt.Errorf("decode products: %w", err)
	}

	items := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.toModel()
		if err != nil {
			return Page{}, err
		}
		items = append(items, p)
	}
	return Page{Items: items, TotalCount: total}, nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hsrini/wellness/internal/domain"
)

const productCollection = "products"

// productDoc is the subset of the catalog document the cart core reads.
// Catalog CRUD is owned by a separate service; this lookup is read-only.
type productDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	UUID            string             `bson:"uuid"`
	Title           string             `bson:"title"`
	Price           int64              `bson:"price"`
	DiscountedPrice *int64             `bson:"discountedPrice,omitempty"`
	PrimaryImage    string             `bson:"primaryImage"`
}

type productCatalog struct {
	collection *mongo.Collection
}

// NewProductCatalog returns a domain.ProductCatalog over the products
// collection. Only active products resolve.
func NewProductCatalog(db *mongo.Database) domain.ProductCatalog {
	return &productCatalog{collection: db.Collection(productCollection)}
}

func (c *productCatalog) FindActiveByKey(ctx context.Context, key string) (*domain.ProductSnapshot, error) {
	var doc productDoc

	err := c.collection.FindOne(ctx, bson.M{"uuid": key, "isActive": true}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	return &domain.ProductSnapshot{
		Ref:             doc.ID.Hex(),
		Key:             doc.UUID,
		Title:           doc.Title,
		UnitPrice:       doc.Price,
		DiscountedPrice: doc.DiscountedPrice,
		PrimaryImageURL: doc.PrimaryImage,
	}, nil
}

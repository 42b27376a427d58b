package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hsrini/wellness/internal/domain"
)

const cartCollection = "carts"

type cartStore struct {
	collection *mongo.Collection
}

// NewCartStore returns a domain.CartStore backed by the carts collection.
func NewCartStore(db *mongo.Database) domain.CartStore {
	return &cartStore{collection: db.Collection(cartCollection)}
}

func (s *cartStore) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	var cart domain.Cart

	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (s *cartStore) FindByFilter(ctx context.Context, filter domain.CartFilter, page, pageSize int) ([]domain.Cart, int64, error) {
	query := buildCartFilter(filter)

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count carts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list carts: %w", err)
	}
	defer cursor.Close(ctx)

	carts := []domain.Cart{}
	if err := cursor.All(ctx, &carts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode carts: %w", err)
	}

	return carts, total, nil
}

// Save upserts the cart wholesale. A revision token guards against
// concurrent read-modify-write cycles: the replace matches only the
// revision the caller loaded, and a miss means somebody else saved
// in between.
func (s *cartStore) Save(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	cart.UpdatedAt = now

	if cart.Revision == 0 {
		cart.CreatedAt = now
		cart.Revision = 1

		if _, err := s.collection.InsertOne(ctx, cart); err != nil {
			cart.Revision = 0
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrCartConflict
			}
			return fmt.Errorf("failed to insert cart: %w", err)
		}
		return nil
	}

	prev := cart.Revision
	cart.Revision = prev + 1

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID, "revision": prev}, cart)
	if err != nil {
		cart.Revision = prev
		return fmt.Errorf("failed to replace cart: %w", err)
	}
	if res.MatchedCount == 0 {
		cart.Revision = prev
		return domain.ErrCartConflict
	}

	return nil
}

// buildCartFilter translates the domain filter into a Mongo query.
// Absent fields contribute nothing; present fields AND together.
func buildCartFilter(filter domain.CartFilter) bson.M {
	query := bson.M{}

	if filter.Status != "" {
		query["status"] = filter.Status
	}

	if filter.CreatedFrom != nil || filter.CreatedTo != nil {
		created := bson.M{}
		if filter.CreatedFrom != nil {
			created["$gte"] = *filter.CreatedFrom
		}
		if filter.CreatedTo != nil {
			created["$lte"] = *filter.CreatedTo
		}
		query["createdAt"] = created
	}

	if filter.Name != "" {
		query["customerName"] = bson.M{"$regex": regexp.QuoteMeta(filter.Name), "$options": "i"}
	}

	if filter.PhoneNumber != "" {
		query["customerPhone"] = bson.M{"$regex": regexp.QuoteMeta(filter.PhoneNumber), "$options": "i"}
	}

	return query
}

// EnsureCartIndexes creates the listing indexes. Safe to call on every
// startup.
func EnsureCartIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "customerPhone", Value: 1}}},
	}

	if _, err := db.Collection(cartCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	return nil
}

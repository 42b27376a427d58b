package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hsrini/wellness/internal/domain"
)

const configCollection = "configs"

type sequenceCounter struct {
	collection *mongo.Collection
}

// NewSequenceCounter returns a domain.SequenceCounter stored as
// key/value documents in the configs collection. The increment happens
// server-side, so concurrent callers always see distinct values.
func NewSequenceCounter(db *mongo.Database) domain.SequenceCounter {
	return &sequenceCounter{collection: db.Collection(configCollection)}
}

func (c *sequenceCounter) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}

	err := c.collection.FindOneAndUpdate(ctx,
		bson.M{"key": name},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %q: %w", name, err)
	}

	return doc.Value, nil
}

// EnsureSequenceDefaults seeds the order-number counter at zero without
// touching an existing value, and enforces key uniqueness.
func EnsureSequenceDefaults(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(configCollection)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create config index: %w", err)
	}

	_, err = collection.UpdateOne(ctx,
		bson.M{"key": domain.OrderIDSequence},
		bson.M{"$setOnInsert": bson.M{"key": domain.OrderIDSequence, "value": int64(0)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to seed sequence defaults: %w", err)
	}

	return nil
}

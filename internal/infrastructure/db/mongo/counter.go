package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionCounters = "counters"

// CounterSequence implements ports.SequenceAllocator with one document per
// sequence name, incremented atomically by findAndModify.
type CounterSequence struct {
	col *mongo.Collection
}

func NewCounterSequence(db *mongo.Database) *CounterSequence {
	return &CounterSequence{col: db.Collection(collectionCounters)}
}

type counterDoc struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// Next returns the next value of the named sequence, starting at 1.
func (s *CounterSequence) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", name, err)
	}
	return doc.Seq, nil
}

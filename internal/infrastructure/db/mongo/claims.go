package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const collectionClaims = "claims"

// ClaimStore implements ports.Claimer. A claim is a document keyed by its
// name, so the unique _id index lets exactly one insert win.
type ClaimStore struct {
	col *mongo.Collection
}

func NewClaimStore(db *mongo.Database) *ClaimStore {
	return &ClaimStore{col: db.Collection(collectionClaims)}
}

type claimDoc struct {
	Name      string `bson:"_id"`
	ClaimedAt int64  `bson:"claimed_at"`
}

func (s *ClaimStore) Claim(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.col.InsertOne(ctx, claimDoc{Name: name, ClaimedAt: time.Now().Unix()})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", name, err)
	}
	return true, nil
}

func (s *ClaimStore) Release(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}

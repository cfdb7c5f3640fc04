package rolestore

import (
	"context"
	"errors"
	"time"

	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/txn"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("roles")}
}

// ErrNotFound is returned when no role document matches the lookup.
var ErrNotFound = errors.New("role not found")

// GetByName loads a seeded role document.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// List returns all seeded role documents.
func (s *Store) List(ctx context.Context) ([]models.Role, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var roles []models.Role
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Seed writes the static policy table into the roles collection, inside one
// transaction so a partially-seeded role set is never observable. Seeding is
// idempotent: each role is upserted by name, and a drifted permission set is
// written back to match the policy. On deployments without transaction
// support txn.Run falls back to sequential upserts, which stay idempotent
// per document.
func (s *Store) Seed(ctx context.Context, logger *zap.Logger) error {
	return txn.Run(ctx, s.db, logger, func(ctx context.Context) error {
		now := time.Now().UTC()
		for _, name := range policy.Roles() {
			perms := policy.PermissionsFor(name)
			filter := bson.M{"name": name}
			update := bson.M{
				"$set": bson.M{
					"permissions": perms,
					"updated_at":  now,
				},
				"$setOnInsert": bson.M{
					"name":       name,
					"created_at": now,
				},
			}
			opts := options.Update().SetUpsert(true)
			if _, err := s.c.UpdateOne(ctx, filter, update, opts); err != nil {
				return err
			}
		}
		return nil
	})
}

package accountstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

var (
	// ErrDuplicateAccount is returned when an account for the same
	// (provider, external_id) pair already exists.
	ErrDuplicateAccount = errors.New("an account for this provider identity already exists")
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound    = errors.New("account not found")
	errBadProvider = errors.New(`provider must be "local" or "google"`)
)

// GetByProviderID looks up the account linking a provider identity.
// Returns ErrNotFound if no account matches.
func (s *Store) GetByProviderID(ctx context.Context, provider, externalID string) (*models.Account, error) {
	var a models.Account
	err := s.c.FindOne(ctx, bson.M{"provider": provider, "external_id": externalID}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByUser returns all provider accounts owned by a user.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accounts []models.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create inserts a new provider link. The unique (provider, external_id)
// index is the arbiter for duplicate registrations, including races.
func (s *Store) Create(ctx context.Context, a models.Account) (models.Account, error) {
	if !models.IsValidProvider(a.Provider) {
		return models.Account{}, errBadProvider
	}

	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, err
	}
	return a, nil
}

package memberstore

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
	return &Store{c: db.Collection("members")}
}

var (
	// ErrDuplicateMember is returned when a member record already exists
	// for the (user, workspace) pair. The unique index raises it even when
	// two requests race past the existence check.
	ErrDuplicateMember = errors.New("user is already a member of this workspace")
	// ErrNotFound is returned when no member record matches the lookup.
	ErrNotFound = errors.New("member not found")

	errBadRole = errors.New(`role must be "owner", "admin", or "member"`)
)

// Add creates a membership for (userID, workspaceID) with the given role.
func (s *Store) Add(ctx context.Context, userID, workspaceID primitive.ObjectID, role string) (models.Member, error) {
	if !models.IsValidRole(role) {
		return models.Member{}, errBadRole
	}

	m := models.Member{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// Get loads the member record for (userID, workspaceID).
// Returns ErrNotFound if the user is not a member of the workspace.
func (s *Store) Get(ctx context.Context, userID, workspaceID primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "workspace_id": workspaceID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Exists checks if a membership exists for the given user and workspace.
func (s *Store) Exists(ctx context.Context, userID, workspaceID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "workspace_id": workspaceID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetRole changes the role on an existing membership.
// Returns ErrNotFound if the pair has no member record.
func (s *Store) SetRole(ctx context.Context, userID, workspaceID primitive.ObjectID, role string) error {
	if !models.IsValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "workspace_id": workspaceID},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the membership for (userID, workspaceID). Removal takes
// effect immediately: nothing caches role resolutions across requests.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Remove(ctx context.Context, userID, workspaceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByWorkspace removes all memberships for a workspace.
// Returns the number of documents deleted.
func (s *Store) DeleteByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByWorkspace returns all memberships for a workspace, optionally
// filtered by role. If role is empty, returns all memberships.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, role string) ([]models.Member, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListByUser returns all of a user's memberships across workspaces.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CountByWorkspace returns the count of memberships for a workspace,
// optionally filtered by role.
func (s *Store) CountByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"workspace_id": workspaceID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

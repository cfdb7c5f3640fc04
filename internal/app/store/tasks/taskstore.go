package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/loftwork/loftwork/internal/app/system/normalize"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// ErrNotFound is returned when no task matches the lookup within the
// workspace.
var ErrNotFound = errors.New("task not found")

// Create inserts a new task.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	if t.Status == "" {
		t.Status = models.TaskOpen
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Get loads a task by id within a workspace.
func (s *Store) Get(ctx context.Context, workspaceID, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByProject returns a project's tasks within a workspace.
func (s *Store) ListByProject(ctx context.Context, workspaceID, projectID primitive.ObjectID) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID, "project_id": projectID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// TaskUpdate holds the mutable task fields. Nil pointers leave the stored
// value unchanged.
type TaskUpdate struct {
	Title      *string
	Status     *string
	AssigneeID *primitive.ObjectID
}

// Update modifies a task within a workspace.
func (s *Store) Update(ctx context.Context, workspaceID, id primitive.ObjectID, upd TaskUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = normalize.Name(*upd.Title)
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.AssigneeID != nil {
		set["assignee_id"] = *upd.AssigneeID
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task within a workspace.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, workspaceID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByProject removes all tasks of one project (workspace-scoped).
func (s *Store) DeleteByProject(ctx context.Context, workspaceID, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID, "project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByWorkspace removes all tasks in a workspace.
func (s *Store) DeleteByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

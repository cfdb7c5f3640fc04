// Package tasks serves task CRUD inside a project.
package tasks

import (
	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	projectstore "github.com/loftwork/loftwork/internal/app/store/projects"
	taskstore "github.com/loftwork/loftwork/internal/app/store/tasks"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for task management.
type Handler struct {
	Tasks    *taskstore.Store
	Projects *projectstore.Store
	Members  *memberstore.Store
	Log      *zap.Logger
}

// NewHandler creates a new tasks Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:    taskstore.New(db),
		Projects: projectstore.New(db),
		Members:  memberstore.New(db),
		Log:      logger,
	}
}

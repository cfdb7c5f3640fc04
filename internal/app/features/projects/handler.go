// Package projects serves project CRUD inside a workspace.
package projects

import (
	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	projectstore "github.com/loftwork/loftwork/internal/app/store/projects"
	taskstore "github.com/loftwork/loftwork/internal/app/store/tasks"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for project management.
type Handler struct {
	DB       *mongo.Database
	Projects *projectstore.Store
	Tasks    *taskstore.Store
	Members  *memberstore.Store
	Log      *zap.Logger
}

// NewHandler creates a new projects Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Projects: projectstore.New(db),
		Tasks:    taskstore.New(db),
		Members:  memberstore.New(db),
		Log:      logger,
	}
}

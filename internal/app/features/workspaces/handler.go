// Package workspaces serves workspace lifecycle and membership management:
// create, list, delete, invite-code regeneration, and member administration.
package workspaces

import (
	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	projectstore "github.com/loftwork/loftwork/internal/app/store/projects"
	taskstore "github.com/loftwork/loftwork/internal/app/store/tasks"
	userstore "github.com/loftwork/loftwork/internal/app/store/users"
	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	"github.com/loftwork/loftwork/internal/app/system/auditlog"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for workspace management.
type Handler struct {
	DB         *mongo.Database
	Workspaces *workspacestore.Store
	Members    *memberstore.Store
	Users      *userstore.Store
	Projects   *projectstore.Store
	Tasks      *taskstore.Store
	Invites    *invites.Service
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

// NewHandler creates a new workspaces Handler.
func NewHandler(db *mongo.Database, inv *invites.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Workspaces: workspacestore.New(db),
		Members:    memberstore.New(db),
		Users:      userstore.New(db),
		Projects:   projectstore.New(db),
		Tasks:      taskstore.New(db),
		Invites:    inv,
		Audit:      audit,
		Log:        logger,
	}
}

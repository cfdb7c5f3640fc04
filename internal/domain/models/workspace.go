// internal/domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is the tenancy boundary. Projects, tasks, and memberships are
// scoped to exactly one workspace via their workspace_id field.
//
// InviteCode is the single shareable join code for the workspace. It must be
// globally unique and is replaced wholesale on regeneration; redeeming it
// does not consume it.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"` // case-insensitive for search

	OwnerID    primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	InviteCode string             `bson:"invite_code" json:"invite_code"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

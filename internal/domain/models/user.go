// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the canonical identity record.
//
// NOTE:
//   - Workspace membership is not embedded on User.
//     Use the members collection to discover a user's workspaces and roles.
//   - CurrentWorkspaceID is a cached "last active workspace" pointer kept for
//     client convenience. Authorization never reads it; every guarded call
//     takes an explicit workspace id.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"` // stored normalized lowercase
	DisplayName   string             `bson:"display_name" json:"display_name"`
	DisplayNameCI string             `bson:"display_name_ci" json:"-"` // lowercase, diacritics-stripped

	// Nil for pure federated accounts that never set a password.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	CurrentWorkspaceID *primitive.ObjectID `bson:"current_workspace_id,omitempty" json:"current_workspace_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the user can log in with local credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

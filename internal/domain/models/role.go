// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names. Every Member carries exactly one of these.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Role is a seeded, named permission bundle. The roles collection is written
// once at bootstrap (idempotently) and read-only afterwards; the in-process
// policy table is the authority for permission checks.
type Role struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Permissions []string           `bson:"permissions" json:"permissions"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidRole checks if a value is a known role name.
func IsValidRole(value string) bool {
	return value == RoleOwner || value == RoleAdmin || value == RoleMember
}

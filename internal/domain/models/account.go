// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auth providers an Account can link to.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Account links a User to one auth provider identity. At most one account
// exists per (provider, external_id); a user may hold one account per
// provider. Accounts are immutable after creation.
//
// For local accounts ExternalID is the normalized email, so the unique
// (provider, external_id) index is also the duplicate-registration arbiter.
type Account struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Provider   string             `bson:"provider" json:"provider"`
	ExternalID string             `bson:"external_id" json:"external_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// IsValidProvider checks if a value is a supported auth provider.
func IsValidProvider(value string) bool {
	return value == ProviderLocal || value == ProviderGoogle
}

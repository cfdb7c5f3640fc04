// Package authz is the single authorization path for workspace-scoped
// operations: resolve the caller's role through the members collection,
// then test the required permissions against the static policy table.
// Handlers never re-implement these checks; they call Require.
package authz

import (
	"context"
	"errors"

	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotAMember is returned when the user has no member record for the
	// workspace.
	ErrNotAMember = errors.New("user is not a member of this workspace")
	// ErrUnauthorized is returned when the resolved role lacks at least one
	// required permission.
	ErrUnauthorized = errors.New("role does not grant the required permission")
)

// ResolveRole looks up the caller's role for a workspace. One store lookup
// per call, no cross-request caching: a removed or demoted member loses
// access on their very next request.
func ResolveRole(ctx context.Context, members *memberstore.Store, userID, workspaceID primitive.ObjectID) (string, error) {
	m, err := members.Get(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return "", ErrNotAMember
		}
		return "", err
	}
	return m.Role, nil
}

// Check tests whether role holds every required permission (AND semantics).
// Pure function: no I/O, no side effects. An unknown role holds nothing.
func Check(role string, perms ...policy.Permission) error {
	for _, p := range perms {
		if !policy.Grants(role, p) {
			return ErrUnauthorized
		}
	}
	return nil
}

// Require composes ResolveRole and Check, returning the resolved role so
// callers can branch on it (e.g. listing endpoints that include the invite
// code only for roles that may share it).
func Require(ctx context.Context, members *memberstore.Store, userID, workspaceID primitive.ObjectID, perms ...policy.Permission) (string, error) {
	role, err := ResolveRole(ctx, members, userID, workspaceID)
	if err != nil {
		return "", err
	}
	if err := Check(role, perms...); err != nil {
		return "", err
	}
	return role, nil
}

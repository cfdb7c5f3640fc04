// Package policy defines the static role→permission table. The table is
// built once at package init and read-only afterwards; Seed mirrors it into
// the roles collection so the seeded documents and the in-process table can
// never drift apart.
package policy

import (
	"sort"

	"github.com/loftwork/loftwork/internal/domain/models"
)

// Permission identifies one allowed action.
type Permission string

// All permissions enforceable by the authorization guard.
const (
	ViewWorkspace    Permission = "VIEW_WORKSPACE"
	CreateProject    Permission = "CREATE_PROJECT"
	EditProject      Permission = "EDIT_PROJECT"
	DeleteProject    Permission = "DELETE_PROJECT"
	CreateTask       Permission = "CREATE_TASK"
	EditTask         Permission = "EDIT_TASK"
	DeleteTask       Permission = "DELETE_TASK"
	InviteMember     Permission = "INVITE_MEMBER"
	RemoveMember     Permission = "REMOVE_MEMBER"
	ChangeRole       Permission = "CHANGE_ROLE"
	RegenerateInvite Permission = "REGENERATE_INVITE"
	DeleteWorkspace  Permission = "DELETE_WORKSPACE"
)

// memberPerms is the baseline granted to every member of a workspace.
var memberPerms = []Permission{
	ViewWorkspace,
	CreateTask,
	EditTask,
}

// adminExtra is what admin adds on top of member.
var adminExtra = []Permission{
	CreateProject,
	EditProject,
	DeleteProject,
	DeleteTask,
	InviteMember,
	RemoveMember,
	RegenerateInvite,
}

// ownerExtra is what owner adds on top of admin.
var ownerExtra = []Permission{
	ChangeRole,
	DeleteWorkspace,
}

// table maps role name → permission set. Built by layering, so the
// member ⊆ admin ⊆ owner containment holds by construction.
var table map[string]map[Permission]struct{}

func init() {
	member := toSet(memberPerms)
	admin := extend(member, adminExtra)
	owner := extend(admin, ownerExtra)
	table = map[string]map[Permission]struct{}{
		models.RoleMember: member,
		models.RoleAdmin:  admin,
		models.RoleOwner:  owner,
	}
}

func toSet(perms []Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func extend(base map[Permission]struct{}, extra []Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(base)+len(extra))
	for p := range base {
		set[p] = struct{}{}
	}
	for _, p := range extra {
		set[p] = struct{}{}
	}
	return set
}

// Grants reports whether the named role holds the permission. Unknown roles
// hold nothing.
func Grants(role string, perm Permission) bool {
	set, ok := table[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// PermissionsFor returns the permission identifiers for a role, sorted for
// stable output. Returns nil for unknown roles.
func PermissionsFor(role string) []string {
	set, ok := table[role]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// Roles returns the role names the policy defines.
func Roles() []string {
	return []string{models.RoleOwner, models.RoleAdmin, models.RoleMember}
}

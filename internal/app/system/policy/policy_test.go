package policy

import (
	"testing"

	"github.com/loftwork/loftwork/internal/domain/models"
)

func TestGrants_MemberBaseline(t *testing.T) {
	granted := []Permission{ViewWorkspace, CreateTask, EditTask}
	for _, p := range granted {
		if !Grants(models.RoleMember, p) {
			t.Errorf("expected member to hold %s", p)
		}
	}

	denied := []Permission{
		CreateProject, DeleteProject, DeleteTask, InviteMember,
		RemoveMember, ChangeRole, RegenerateInvite, DeleteWorkspace,
	}
	for _, p := range denied {
		if Grants(models.RoleMember, p) {
			t.Errorf("expected member to lack %s", p)
		}
	}
}

func TestGrants_OwnerOnly(t *testing.T) {
	for _, p := range []Permission{ChangeRole, DeleteWorkspace} {
		if !Grants(models.RoleOwner, p) {
			t.Errorf("expected owner to hold %s", p)
		}
		if Grants(models.RoleAdmin, p) {
			t.Errorf("expected admin to lack %s", p)
		}
	}
}

// Every permission granted to member must be granted to admin, and every
// permission granted to admin must be granted to owner. Checked exhaustively
// over the whole table.
func TestMonotonicContainment(t *testing.T) {
	pairs := []struct{ lower, higher string }{
		{models.RoleMember, models.RoleAdmin},
		{models.RoleAdmin, models.RoleOwner},
		{models.RoleMember, models.RoleOwner},
	}
	for _, pair := range pairs {
		for _, p := range PermissionsFor(pair.lower) {
			if !Grants(pair.higher, Permission(p)) {
				t.Errorf("%s holds %s but %s does not", pair.lower, p, pair.higher)
			}
		}
	}
}

func TestGrants_UnknownRole(t *testing.T) {
	if Grants("visitor", ViewWorkspace) {
		t.Error("expected unknown role to hold nothing")
	}
	if PermissionsFor("visitor") != nil {
		t.Error("expected nil permissions for unknown role")
	}
}

func TestPermissionsFor_Sorted(t *testing.T) {
	perms := PermissionsFor(models.RoleOwner)
	if len(perms) == 0 {
		t.Fatal("expected owner permissions")
	}
	for i := 1; i < len(perms); i++ {
		if perms[i-1] > perms[i] {
			t.Errorf("permissions not sorted: %q before %q", perms[i-1], perms[i])
		}
	}
}

func TestRoles(t *testing.T) {
	roles := Roles()
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(roles))
	}
	for _, r := range roles {
		if !models.IsValidRole(r) {
			t.Errorf("policy role %q is not a valid model role", r)
		}
	}
}

package authz_test

import (
	"errors"
	"testing"

	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/domain/models"
	"github.com/loftwork/loftwork/internal/testutil"
)

// A member of workspace A holds no permissions in workspace B, whatever
// their role in A. Tenancy rides entirely on the (user, workspace) lookup.
func TestRequire_CrossWorkspaceIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	members := memberstore.New(db)

	ownerA := fx.CreateUser(ctx, "owner-a@example.com", "Owner A", "")
	ownerB := fx.CreateUser(ctx, "owner-b@example.com", "Owner B", "")
	wsA := fx.CreateWorkspace(ctx, "Alpha", ownerA.ID, "AAAAAA")
	wsB := fx.CreateWorkspace(ctx, "Beta", ownerB.ID, "BBBBBB")

	// Owner of A can delete tasks in A.
	role, err := authz.Require(ctx, members, ownerA.ID, wsA.ID, policy.DeleteTask)
	if err != nil {
		t.Fatalf("Require in own workspace failed: %v", err)
	}
	if role != models.RoleOwner {
		t.Errorf("role = %q, want %q", role, models.RoleOwner)
	}

	// The same user in B is a stranger.
	if _, err := authz.Require(ctx, members, ownerA.ID, wsB.ID, policy.DeleteTask); !errors.Is(err, authz.ErrNotAMember) {
		t.Errorf("cross-workspace error = %v, want ErrNotAMember", err)
	}
	// Even VIEW is out.
	if _, err := authz.Require(ctx, members, ownerA.ID, wsB.ID, policy.ViewWorkspace); !errors.Is(err, authz.ErrNotAMember) {
		t.Errorf("cross-workspace view error = %v, want ErrNotAMember", err)
	}
}

func TestRequire_RoleChangesApplyImmediately(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	members := memberstore.New(db)

	owner := fx.CreateUser(ctx, "owner@example.com", "Owner", "")
	user := fx.CreateUser(ctx, "user@example.com", "User", "")
	ws := fx.CreateWorkspace(ctx, "Gamma", owner.ID, "CCCCCC")
	fx.CreateMember(ctx, user.ID, ws.ID, models.RoleMember)

	// member cannot invite
	if _, err := authz.Require(ctx, members, user.ID, ws.ID, policy.InviteMember); !errors.Is(err, authz.ErrUnauthorized) {
		t.Fatalf("member invite error = %v, want ErrUnauthorized", err)
	}

	// promote to admin: permission appears on the next check
	if err := members.SetRole(ctx, user.ID, ws.ID, models.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if _, err := authz.Require(ctx, members, user.ID, ws.ID, policy.InviteMember); err != nil {
		t.Errorf("admin invite failed: %v", err)
	}

	// remove: everything gone on the next check
	if _, err := members.Remove(ctx, user.ID, ws.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := authz.Require(ctx, members, user.ID, ws.ID, policy.ViewWorkspace); !errors.Is(err, authz.ErrNotAMember) {
		t.Errorf("removed member error = %v, want ErrNotAMember", err)
	}
}

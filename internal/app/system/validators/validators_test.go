package validators_test

import (
	"testing"
	"time"

	"github.com/loftwork/loftwork/internal/app/system/validators"
	"github.com/loftwork/loftwork/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := []string{
		"users",
		"accounts",
		"workspaces",
		"members",
		"roles",
		"projects",
		"tasks",
		"oauth_states",
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, want := range expected {
		if !have[want] {
			t.Errorf("collection %q was not created", want)
		}
	}
}

func TestUsersValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Missing display_name should be rejected.
	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"email": "missing@example.com",
	})
	if err == nil {
		t.Error("expected validator to reject user without display_name")
	}
}

func TestUsersValidator_ValidUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"email":           "valid@example.com",
		"display_name":    "Valid User",
		"display_name_ci": "valid user",
		"created_at":      time.Now().UTC(),
		"updated_at":      time.Now().UTC(),
	})
	if err != nil {
		t.Errorf("validator rejected a valid user: %v", err)
	}
}

func TestAccountsValidator_InvalidProvider(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("accounts").InsertOne(ctx, bson.M{
		"user_id":     primitive.NewObjectID(),
		"provider":    "myspace",
		"external_id": "someone",
		"created_at":  time.Now().UTC(),
	})
	if err == nil {
		t.Error("expected validator to reject unknown provider")
	}
}

func TestMembersValidator_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("members").InsertOne(ctx, bson.M{
		"user_id":      primitive.NewObjectID(),
		"workspace_id": primitive.NewObjectID(),
		"role":         "emperor",
		"created_at":   time.Now().UTC(),
	})
	if err == nil {
		t.Error("expected validator to reject unknown role")
	}
}

func TestMembersValidator_ValidMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for _, role := range []string{"owner", "admin", "member"} {
		_, err := db.Collection("members").InsertOne(ctx, bson.M{
			"user_id":      primitive.NewObjectID(),
			"workspace_id": primitive.NewObjectID(),
			"role":         role,
			"created_at":   time.Now().UTC(),
		})
		if err != nil {
			t.Errorf("validator rejected valid role %q: %v", role, err)
		}
	}
}

func TestTasksValidator_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("tasks").InsertOne(ctx, bson.M{
		"workspace_id": primitive.NewObjectID(),
		"project_id":   primitive.NewObjectID(),
		"title":        "Do the thing",
		"status":       "maybe",
		"created_by":   primitive.NewObjectID(),
	})
	if err == nil {
		t.Error("expected validator to reject unknown task status")
	}
}

func TestWorkspacesValidator_ShortInviteCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("workspaces").InsertOne(ctx, bson.M{
		"name":        "Acme",
		"name_ci":     "acme",
		"owner_id":    primitive.NewObjectID(),
		"invite_code": "AB",
	})
	if err == nil {
		t.Error("expected validator to reject invite code shorter than 4 chars")
	}
}

func TestOAuthStates_NoValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// oauth_states has no validator; any document shape is accepted.
	_, err := db.Collection("oauth_states").InsertOne(ctx, bson.M{"anything": "goes"})
	if err != nil {
		t.Errorf("oauth_states insert failed: %v", err)
	}
}

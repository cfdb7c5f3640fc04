package workspaces_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	projectsfeature "github.com/loftwork/loftwork/internal/app/features/projects"
	tasksfeature "github.com/loftwork/loftwork/internal/app/features/tasks"
	workspacesfeature "github.com/loftwork/loftwork/internal/app/features/workspaces"
	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	"github.com/loftwork/loftwork/internal/app/system/auditlog"
	"github.com/loftwork/loftwork/internal/app/system/indexes"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"github.com/loftwork/loftwork/internal/domain/models"
	"github.com/loftwork/loftwork/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func mustID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatalf("invalid object id %q: %v", hex, err)
	}
	return id
}

func newTestHandler(t *testing.T) (*workspacesfeature.Handler, *mongo.Database) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	logger := zap.NewNop()
	inviteSvc := invites.New(workspacestore.New(db), memberstore.New(db), 8, logger)
	return workspacesfeature.NewHandler(db, inviteSvc, auditlog.NewNopLogger(), logger), db
}

func serveWorkspaces(h *workspacesfeature.Handler, db *mongo.Database, r *http.Request) *httptest.ResponseRecorder {
	logger := zap.NewNop()
	router := workspacesfeature.Routes(h,
		projectsfeature.NewHandler(db, logger),
		tasksfeature.NewHandler(db, logger))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func TestHandleCreate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")

	body := strings.NewReader(`{"name":"  <i>Design Team</i>  "}`)
	req := testutil.WithUser(httptest.NewRequest("POST", "/", body), u)
	rec := serveWorkspaces(h, db, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}

	var resp struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		OwnerID    string `json:"owner_id"`
		Role       string `json:"role"`
		InviteCode string `json:"invite_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "Design Team" {
		t.Errorf("name should be sanitized and trimmed, got %q", resp.Name)
	}
	if resp.OwnerID != u.ID.Hex() {
		t.Errorf("owner: got %s, want %s", resp.OwnerID, u.ID.Hex())
	}
	if resp.Role != models.RoleOwner {
		t.Errorf("role: got %q, want %q", resp.Role, models.RoleOwner)
	}
	if len(resp.InviteCode) != 8 {
		t.Errorf("invite code length: got %d, want 8", len(resp.InviteCode))
	}

	// The creator's owner membership must exist.
	m, err := memberstore.New(db).Get(ctx, u.ID, mustID(t, resp.ID))
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if m.Role != models.RoleOwner {
		t.Errorf("membership role: got %q, want %q", m.Role, models.RoleOwner)
	}
}

func TestHandleCreate_EmptyName(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")

	req := testutil.WithUser(httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"   "}`)), u)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeList(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	member := fixtures.CreateUser(ctx, "member@example.com", "Member", "")
	wsA := fixtures.CreateWorkspace(ctx, "Alpha", owner.ID, "ALPHACOD")
	fixtures.CreateWorkspace(ctx, "Beta", owner.ID, "BETACODE")
	fixtures.CreateMember(ctx, member.ID, wsA.ID, models.RoleMember)

	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), member)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []struct {
		ID         string `json:"id"`
		Role       string `json:"role"`
		InviteCode string `json:"invite_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("workspaces: got %d, want 1", len(resp))
	}
	if resp[0].ID != wsA.ID.Hex() || resp[0].Role != models.RoleMember {
		t.Errorf("unexpected listing: %+v", resp[0])
	}
	// Plain members cannot see the invite code.
	if resp[0].InviteCode != "" {
		t.Error("invite code should be hidden from members")
	}
}

func TestServeGet_RoleGatesInviteCode(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	admin := fixtures.CreateUser(ctx, "admin@example.com", "Admin", "")
	ws := fixtures.CreateWorkspace(ctx, "Gamma", owner.ID, "GAMMACOD")
	fixtures.CreateMember(ctx, admin.ID, ws.ID, models.RoleAdmin)

	req := testutil.WithUser(httptest.NewRequest("GET", "/"+ws.ID.Hex(), nil), admin)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}

	var resp struct {
		Role       string `json:"role"`
		InviteCode string `json:"invite_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", resp.Role, models.RoleAdmin)
	}
	if resp.InviteCode != "GAMMACOD" {
		t.Errorf("admins should see the invite code, got %q", resp.InviteCode)
	}
}

func TestServeGet_NotAMember(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	outsider := fixtures.CreateUser(ctx, "outsider@example.com", "Outsider", "")
	ws := fixtures.CreateWorkspace(ctx, "Private", owner.ID, "PRIVCODE")

	req := testutil.WithUser(httptest.NewRequest("GET", "/"+ws.ID.Hex(), nil), outsider)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleDelete_CascadesAndGates(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	admin := fixtures.CreateUser(ctx, "admin@example.com", "Admin", "")
	ws := fixtures.CreateWorkspace(ctx, "Doomed", owner.ID, "DOOMCODE")
	fixtures.CreateMember(ctx, admin.ID, ws.ID, models.RoleAdmin)
	p := fixtures.CreateProject(ctx, ws.ID, "Cleanup")

	// Admins may not delete the workspace.
	req := testutil.WithUser(httptest.NewRequest("DELETE", "/"+ws.ID.Hex(), nil), admin)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin delete: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = testutil.WithUser(httptest.NewRequest("DELETE", "/"+ws.ID.Hex(), nil), owner)
	rec = serveWorkspaces(h, db, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: got %d, want %d (body %s)", rec.Code, http.StatusNoContent, rec.Body)
	}

	if _, err := workspacestore.New(db).GetByID(ctx, ws.ID); err == nil {
		t.Error("workspace should be gone")
	}
	if _, err := memberstore.New(db).Get(ctx, admin.ID, ws.ID); err == nil {
		t.Error("memberships should be gone")
	}
	n, err := db.Collection("projects").CountDocuments(ctx, map[string]any{"_id": p.ID})
	if err != nil {
		t.Fatalf("count projects: %v", err)
	}
	if n != 0 {
		t.Error("projects should be gone")
	}
}

func TestHandleRegenerateInvite(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	member := fixtures.CreateUser(ctx, "member@example.com", "Member", "")
	ws := fixtures.CreateWorkspace(ctx, "Delta", owner.ID, "DELTACOD")
	fixtures.CreateMember(ctx, member.ID, ws.ID, models.RoleMember)

	// Members may not rotate the code.
	req := testutil.WithUser(httptest.NewRequest("POST", "/"+ws.ID.Hex()+"/invite/regenerate", nil), member)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member regenerate: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = testutil.WithUser(httptest.NewRequest("POST", "/"+ws.ID.Hex()+"/invite/regenerate", nil), owner)
	rec = serveWorkspaces(h, db, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner regenerate: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}

	var resp struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.InviteCode == "" || resp.InviteCode == "DELTACOD" {
		t.Errorf("expected a fresh code, got %q", resp.InviteCode)
	}

	// The old code must be dead.
	if _, err := workspacestore.New(db).GetByInviteCode(ctx, "DELTACOD"); err == nil {
		t.Error("old invite code should no longer resolve")
	}
}

func TestServeMembers(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	member := fixtures.CreateUser(ctx, "member@example.com", "Member", "")
	ws := fixtures.CreateWorkspace(ctx, "Epsilon", owner.ID, "EPSICODE")
	fixtures.CreateMember(ctx, member.ID, ws.ID, models.RoleMember)

	req := testutil.WithUser(httptest.NewRequest("GET", "/"+ws.ID.Hex()+"/members", nil), member)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}

	var resp []struct {
		UserID      string `json:"user_id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("members: got %d, want 2", len(resp))
	}
	byUser := make(map[string]string, len(resp))
	for _, m := range resp {
		byUser[m.Email] = m.Role
	}
	if byUser["owner@example.com"] != models.RoleOwner || byUser["member@example.com"] != models.RoleMember {
		t.Errorf("unexpected member roles: %v", byUser)
	}
}

func TestHandleRemoveMember(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	admin := fixtures.CreateUser(ctx, "admin@example.com", "Admin", "")
	member := fixtures.CreateUser(ctx, "member@example.com", "Member", "")
	ws := fixtures.CreateWorkspace(ctx, "Zeta", owner.ID, "ZETACODE")
	fixtures.CreateMember(ctx, admin.ID, ws.ID, models.RoleAdmin)
	fixtures.CreateMember(ctx, member.ID, ws.ID, models.RoleMember)

	// A plain member cannot remove anyone.
	req := testutil.WithUser(httptest.NewRequest("DELETE", "/"+ws.ID.Hex()+"/members/"+admin.ID.Hex(), nil), member)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member removing admin: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Nobody can remove the owner.
	req = testutil.WithUser(httptest.NewRequest("DELETE", "/"+ws.ID.Hex()+"/members/"+owner.ID.Hex(), nil), admin)
	rec = serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("removing owner: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = testutil.WithUser(httptest.NewRequest("DELETE", "/"+ws.ID.Hex()+"/members/"+member.ID.Hex(), nil), admin)
	rec = serveWorkspaces(h, db, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin removing member: got %d, want %d (body %s)", rec.Code, http.StatusNoContent, rec.Body)
	}

	if _, err := memberstore.New(db).Get(ctx, member.ID, ws.ID); err == nil {
		t.Error("membership should be gone")
	}
}

func TestHandleRemoveMember_NotFound(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	stranger := fixtures.CreateUser(ctx, "stranger@example.com", "Stranger", "")
	ws := fixtures.CreateWorkspace(ctx, "Eta", owner.ID, "ETACODE1")

	req := testutil.WithUser(httptest.NewRequest("DELETE", "/"+ws.ID.Hex()+"/members/"+stranger.ID.Hex(), nil), owner)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleChangeRole(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	admin := fixtures.CreateUser(ctx, "admin@example.com", "Admin", "")
	member := fixtures.CreateUser(ctx, "member@example.com", "Member", "")
	ws := fixtures.CreateWorkspace(ctx, "Theta", owner.ID, "THETACOD")
	fixtures.CreateMember(ctx, admin.ID, ws.ID, models.RoleAdmin)
	fixtures.CreateMember(ctx, member.ID, ws.ID, models.RoleMember)

	// Only the owner holds CHANGE_ROLE.
	req := testutil.WithUser(httptest.NewRequest("PUT", "/"+ws.ID.Hex()+"/members/"+member.ID.Hex()+"/role",
		strings.NewReader(`{"role":"admin"}`)), admin)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin changing role: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	// The owner role is not assignable.
	req = testutil.WithUser(httptest.NewRequest("PUT", "/"+ws.ID.Hex()+"/members/"+member.ID.Hex()+"/role",
		strings.NewReader(`{"role":"owner"}`)), owner)
	rec = serveWorkspaces(h, db, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("assigning owner: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = testutil.WithUser(httptest.NewRequest("PUT", "/"+ws.ID.Hex()+"/members/"+member.ID.Hex()+"/role",
		strings.NewReader(`{"role":"admin"}`)), owner)
	rec = serveWorkspaces(h, db, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner promoting member: got %d, want %d (body %s)", rec.Code, http.StatusNoContent, rec.Body)
	}

	m, err := memberstore.New(db).Get(ctx, member.ID, ws.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", m.Role, models.RoleAdmin)
	}
}

func TestHandleChangeRole_OwnerImmutable(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "owner@example.com", "Owner", "")
	ws := fixtures.CreateWorkspace(ctx, "Iota", owner.ID, "IOTACODE")

	// Demoting the owner is forbidden even for the owner themself.
	req := testutil.WithUser(httptest.NewRequest("PUT", "/"+ws.ID.Hex()+"/members/"+owner.ID.Hex()+"/role",
		strings.NewReader(`{"role":"member"}`)), owner)
	rec := serveWorkspaces(h, db, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

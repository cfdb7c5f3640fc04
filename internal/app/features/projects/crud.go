package projects

import (
	"context"
	"maps"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/text"
	projectstore "github.com/loftwork/loftwork/internal/app/store/projects"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/htmlsanitize"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/paging"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/app/system/txn"
	"github.com/loftwork/loftwork/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// params pulls the caller and workspace ids (and project id when present)
// out of the request.
func (h *Handler) params(w http.ResponseWriter, r *http.Request) (callerID, workspaceID, projectID primitive.ObjectID, ok bool) {
	cu, _ := sysauth.CurrentUser(r)
	callerID, valid := sysauth.UserID(cu)
	if !valid {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return callerID, workspaceID, projectID, false
	}
	workspaceID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid workspace id")
		return callerID, workspaceID, projectID, false
	}
	if raw := chi.URLParam(r, "projectID"); raw != "" {
		projectID, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpapi.Error(w, http.StatusBadRequest, "invalid project id")
			return callerID, workspaceID, projectID, false
		}
	}
	return callerID, workspaceID, projectID, true
}

type projectRequest struct {
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

func validStatus(s string) bool {
	return s == "" || s == models.ProjectActive || s == models.ProjectArchived
}

// HandleCreate handles POST /workspaces/{id}/projects.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, _, ok := h.params(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := htmlsanitize.Plain(req.Name)
	if name == "" {
		httpapi.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.CreateProject); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	p, err := h.Projects.Create(ctx, models.Project{
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedBy:   callerID,
	})
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, p)
}

type projectPage struct {
	Projects   []models.Project `json:"projects"`
	Total      int64            `json:"total"`
	PrevCursor string           `json:"prev_cursor,omitempty"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ServeList handles GET /workspaces/{id}/projects.
// Supports prefix search on the name via ?q= and keyset pagination via
// ?after= / ?before= cursors.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, _, ok := h.params(w, r)
	if !ok {
		return
	}

	q := query.Search(r, "q")
	after := query.Get(r, "after")
	before := query.Get(r, "before")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.ViewWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	base := bson.M{"workspace_id": workspaceID}
	if lo, hi := text.PrefixRange(q); lo != "" {
		base["name_ci"] = bson.M{"$gte": lo, "$lt": hi}
	}

	total, err := h.Projects.Count(ctx, base)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	const sortField = "name_ci"
	f := maps.Clone(base)
	find := options.Find()
	cfg := paging.ConfigureKeyset(before, after)
	cfg.ApplyToFind(find, sortField)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		maps.Copy(f, ks)
	}

	rows, err := h.Projects.Find(ctx, f, find)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := paging.TrimPage(&rows, before, after)

	resp := projectPage{Projects: rows, Total: total}
	prevCur, nextCur := paging.BuildCursors(rows,
		func(p models.Project) string { return p.NameCI },
		func(p models.Project) primitive.ObjectID { return p.ID },
	)
	if page.HasPrev {
		resp.PrevCursor = prevCur
	}
	if page.HasNext {
		resp.NextCursor = nextCur
	}
	if resp.Projects == nil {
		resp.Projects = []models.Project{}
	}
	httpapi.JSON(w, http.StatusOK, resp)
}

// ServeGet handles GET /workspaces/{id}/projects/{projectID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, projectID, ok := h.params(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.ViewWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	p, err := h.Projects.Get(ctx, workspaceID, projectID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, p)
}

// HandleUpdate handles PATCH /workspaces/{id}/projects/{projectID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, projectID, ok := h.params(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := htmlsanitize.Plain(req.Name)
	if name == "" && req.Status == "" {
		httpapi.Error(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if !validStatus(req.Status) {
		httpapi.Error(w, http.StatusBadRequest, `status must be "active" or "archived"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.EditProject); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	if err := h.Projects.Update(ctx, workspaceID, projectID, name, req.Status); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	p, err := h.Projects.Get(ctx, workspaceID, projectID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /workspaces/{id}/projects/{projectID}.
// Tasks of the project go with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, projectID, ok := h.params(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.DeleteProject); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, terr := h.Tasks.DeleteByProject(ctx, workspaceID, projectID); terr != nil {
			return terr
		}
		n, terr := h.Projects.Delete(ctx, workspaceID, projectID)
		if terr != nil {
			return terr
		}
		if n == 0 {
			return projectstore.ErrNotFound
		}
		return nil
	})
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("project deleted",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("project_id", projectID.Hex()),
		zap.String("deleted_by", callerID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

package tasks

import (
	"context"
	"net/http"

	taskstore "github.com/loftwork/loftwork/internal/app/store/tasks"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/htmlsanitize"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (callerID, workspaceID, projectID, taskID primitive.ObjectID, ok bool) {
	cu, _ := sysauth.CurrentUser(r)
	callerID, valid := sysauth.UserID(cu)
	if !valid {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return callerID, workspaceID, projectID, taskID, false
	}
	workspaceID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid workspace id")
		return callerID, workspaceID, projectID, taskID, false
	}
	projectID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid project id")
		return callerID, workspaceID, projectID, taskID, false
	}
	if raw := chi.URLParam(r, "taskID"); raw != "" {
		taskID, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpapi.Error(w, http.StatusBadRequest, "invalid task id")
			return callerID, workspaceID, projectID, taskID, false
		}
	}
	return callerID, workspaceID, projectID, taskID, true
}

type taskRequest struct {
	Title      string  `json:"title,omitempty"`
	Status     string  `json:"status,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

func validStatus(s string) bool {
	return s == "" || s == models.TaskOpen || s == models.TaskDone
}

// HandleCreate handles POST .../tasks. The project must exist in the
// workspace named by the URL; a project id from another tenant reads as
// not found.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, projectID, _, ok := h.params(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := htmlsanitize.Plain(req.Title)
	if title == "" {
		httpapi.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.CreateTask); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	if _, err := h.Projects.Get(ctx, workspaceID, projectID); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	task := models.Task{
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		Title:       title,
		CreatedBy:   callerID,
	}
	if req.AssigneeID != nil {
		assignee, err := primitive.ObjectIDFromHex(*req.AssigneeID)
		if err != nil {
			httpapi.Error(w, http.StatusBadRequest, "invalid assignee_id")
			return
		}
		task.AssigneeID = &assignee
	}

	created, err := h.Tasks.Create(ctx, task)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, created)
}

// ServeList handles GET .../tasks.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, projectID, _, ok := h.params(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.ViewWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	tasks, err := h.Tasks.ListByProject(ctx, workspaceID, projectID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, tasks)
}

// ServeGet handles GET .../tasks/{taskID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, _, taskID, ok := h.params(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.ViewWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	task, err := h.Tasks.Get(ctx, workspaceID, taskID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, task)
}

// HandleUpdate handles PATCH .../tasks/{taskID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, _, taskID, ok := h.params(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validStatus(req.Status) {
		httpapi.Error(w, http.StatusBadRequest, `status must be "open" or "done"`)
		return
	}

	var upd taskstore.TaskUpdate
	if req.Title != "" {
		title := htmlsanitize.Plain(req.Title)
		if title == "" {
			httpapi.Error(w, http.StatusBadRequest, "title must not be empty")
			return
		}
		upd.Title = &title
	}
	if req.Status != "" {
		upd.Status = &req.Status
	}
	if req.AssigneeID != nil {
		assignee, err := primitive.ObjectIDFromHex(*req.AssigneeID)
		if err != nil {
			httpapi.Error(w, http.StatusBadRequest, "invalid assignee_id")
			return
		}
		upd.AssigneeID = &assignee
	}
	if upd.Title == nil && upd.Status == nil && upd.AssigneeID == nil {
		httpapi.Error(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.EditTask); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	if err := h.Tasks.Update(ctx, workspaceID, taskID, upd); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	task, err := h.Tasks.Get(ctx, workspaceID, taskID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, task)
}

// HandleDelete handles DELETE .../tasks/{taskID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, _, taskID, ok := h.params(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.DeleteTask); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	n, err := h.Tasks.Delete(ctx, workspaceID, taskID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	if n == 0 {
		httpapi.Error(w, http.StatusNotFound, "task not found")
		return
	}

	h.Log.Info("task deleted",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("task_id", taskID.Hex()),
		zap.String("deleted_by", callerID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

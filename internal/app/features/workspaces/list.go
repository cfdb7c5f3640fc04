package workspaces

import (
	"context"
	"net/http"

	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /workspaces: every workspace the caller belongs to,
// with their role in each.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	memberships, err := h.Members.ListByUser(ctx, userID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	roleByWorkspace := make(map[primitive.ObjectID]string, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.WorkspaceID)
		roleByWorkspace[m.WorkspaceID] = m.Role
	}

	wss, err := h.Workspaces.GetByIDs(ctx, ids)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	out := make([]workspaceResponse, 0, len(wss))
	for _, ws := range wss {
		out = append(out, toResponse(ws, roleByWorkspace[ws.ID]))
	}
	httpapi.JSON(w, http.StatusOK, out)
}

// ServeGet handles GET /workspaces/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	workspaceID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	role, err := authz.Require(ctx, h.Members, userID, workspaceID, policy.ViewWorkspace)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	ws, err := h.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toResponse(ws, role))
}

package workspaces

import (
	"context"
	"net/http"

	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/app/system/txn"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /workspaces/{id}. Cascades tasks, projects,
// and memberships before the workspace document itself; one transaction
// where supported, so readers never observe a half-deleted workspace.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, userID, workspaceID, policy.DeleteWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, terr := h.Tasks.DeleteByWorkspace(ctx, workspaceID); terr != nil {
			return terr
		}
		if _, terr := h.Projects.DeleteByWorkspace(ctx, workspaceID); terr != nil {
			return terr
		}
		if _, terr := h.Members.DeleteByWorkspace(ctx, workspaceID); terr != nil {
			return terr
		}
		_, terr := h.Workspaces.Delete(ctx, workspaceID)
		return terr
	})
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("workspace deleted",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("deleted_by", userID.Hex()))
	h.Audit.WorkspaceDeleted(ctx, r, userID, workspaceID)
	w.WriteHeader(http.StatusNoContent)
}

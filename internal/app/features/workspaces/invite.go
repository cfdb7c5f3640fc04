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
	"go.uber.org/zap"
)

type inviteResponse struct {
	InviteCode string `json:"invite_code"`
}

// HandleRegenerateInvite handles POST /workspaces/{id}/invite/regenerate.
// The old code stops working as soon as the new one is written.
func (h *Handler) HandleRegenerateInvite(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, userID, workspaceID, policy.RegenerateInvite); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	code, err := h.Invites.Regenerate(ctx, workspaceID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("invite code regenerated",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("by", userID.Hex()))
	h.Audit.InviteRegenerated(ctx, r, userID, workspaceID)
	httpapi.JSON(w, http.StatusOK, inviteResponse{InviteCode: code})
}

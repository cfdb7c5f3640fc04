// Package invites serves invite-code redemption.
package invites

import (
	"context"
	"net/http"

	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/auditlog"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler provides the invite redemption endpoint.
type Handler struct {
	Invites *invites.Service
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(svc *invites.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Invites: svc, Audit: audit, Log: logger}
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	Role          string `json:"role"`
}

// HandleRedeem handles POST /invites/redeem. A valid code joins the caller
// to the workspace as a member; redeeming does not consume the code.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req redeemRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		httpapi.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, member, err := h.Invites.Redeem(ctx, userID, req.Code)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Audit.InviteRedeemed(ctx, r, userID, ws.ID)

	httpapi.JSON(w, http.StatusCreated, redeemResponse{
		WorkspaceID:   ws.ID.Hex(),
		WorkspaceName: ws.Name,
		Role:          member.Role,
	})
}

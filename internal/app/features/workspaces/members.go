package workspaces

import (
	"context"
	"errors"
	"net/http"

	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memberParams pulls the caller id, workspace id, and target user id out of
// an authenticated member-management request.
func (h *Handler) memberParams(w http.ResponseWriter, r *http.Request) (callerID, workspaceID, targetID primitive.ObjectID, ok bool) {
	cu, _ := sysauth.CurrentUser(r)
	callerID, valid := sysauth.UserID(cu)
	if !valid {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return callerID, workspaceID, targetID, false
	}
	workspaceID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid workspace id")
		return callerID, workspaceID, targetID, false
	}
	if raw := chi.URLParam(r, "userID"); raw != "" {
		targetID, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpapi.Error(w, http.StatusBadRequest, "invalid user id")
			return callerID, workspaceID, targetID, false
		}
	}
	return callerID, workspaceID, targetID, true
}

// ServeMembers handles GET /workspaces/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, _, ok := h.memberParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.ViewWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	members, err := h.Members.ListByWorkspace(ctx, workspaceID, "")
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		u := byID[m.UserID]
		out = append(out, memberResponse{
			UserID:      m.UserID.Hex(),
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        m.Role,
			JoinedAt:    m.CreatedAt,
		})
	}
	httpapi.JSON(w, http.StatusOK, out)
}

// HandleRemoveMember handles DELETE /workspaces/{id}/members/{userID}.
// The owner cannot be removed; the membership row disappears immediately,
// so the removed user's next request already fails authorization.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, targetID, ok := h.memberParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.RemoveMember); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	target, err := h.Members.Get(ctx, targetID, workspaceID)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			httpapi.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	if target.Role == models.RoleOwner {
		httpapi.Fail(w, h.Log, authz.ErrUnauthorized)
		return
	}

	if _, err := h.Members.Remove(ctx, targetID, workspaceID); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("member removed",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("user_id", targetID.Hex()),
		zap.String("removed_by", callerID.Hex()))
	h.Audit.MemberRemoved(ctx, r, callerID, targetID, workspaceID)
	w.WriteHeader(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// HandleChangeRole handles PUT /workspaces/{id}/members/{userID}/role.
// Only admin and member are assignable; ownership does not move through
// this endpoint, in either direction.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	callerID, workspaceID, targetID, ok := h.memberParams(w, r)
	if !ok {
		return
	}

	var req changeRoleRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		httpapi.Error(w, http.StatusBadRequest, `role must be "admin" or "member"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, callerID, workspaceID, policy.ChangeRole); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	target, err := h.Members.Get(ctx, targetID, workspaceID)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			httpapi.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	if target.Role == models.RoleOwner {
		httpapi.Fail(w, h.Log, authz.ErrUnauthorized)
		return
	}

	if err := h.Members.SetRole(ctx, targetID, workspaceID, req.Role); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("member role changed",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("user_id", targetID.Hex()),
		zap.String("role", req.Role),
		zap.String("changed_by", callerID.Hex()))
	h.Audit.MemberRoleChanged(ctx, r, callerID, targetID, workspaceID, req.Role)
	w.WriteHeader(http.StatusNoContent)
}

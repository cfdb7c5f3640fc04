package workspaces

import (
	"time"

	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/domain/models"
)

// workspaceResponse is a workspace as seen by one particular member. The
// invite code is included only for roles allowed to share it.
type workspaceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	Role       string    `json:"role"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(ws models.Workspace, role string) workspaceResponse {
	resp := workspaceResponse{
		ID:        ws.ID.Hex(),
		Name:      ws.Name,
		OwnerID:   ws.OwnerID.Hex(),
		Role:      role,
		CreatedAt: ws.CreatedAt,
	}
	if authz.Check(role, policy.InviteMember) == nil {
		resp.InviteCode = ws.InviteCode
	}
	return resp
}

// memberResponse is one row of the member listing, joined with the user's
// public profile fields.
type memberResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

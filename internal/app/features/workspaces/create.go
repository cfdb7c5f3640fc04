package workspaces

import (
	"context"
	"errors"
	"net/http"

	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/htmlsanitize"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/app/system/txn"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.uber.org/zap"
)

type createRequest struct {
	Name string `json:"name"`
}

const createAttempts = 5

// HandleCreate handles POST /workspaces. The creator becomes the owner:
// workspace insert and owner membership land in one transaction where the
// deployment supports it.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createRequest
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

	var created models.Workspace
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		var code string
		code, err = h.Invites.NewCode(ctx)
		if err != nil {
			break
		}

		err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
			ws, terr := h.Workspaces.Create(ctx, models.Workspace{
				Name:       name,
				OwnerID:    userID,
				InviteCode: code,
			})
			if terr != nil {
				return terr
			}
			if _, terr := h.Members.Add(ctx, userID, ws.ID, models.RoleOwner); terr != nil {
				return terr
			}
			created = ws
			return nil
		})
		if !errors.Is(err, workspacestore.ErrDuplicateInviteCode) {
			break
		}
	}
	if errors.Is(err, workspacestore.ErrDuplicateInviteCode) {
		err = invites.ErrCodeGeneration
	}
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("workspace created",
		zap.String("workspace_id", created.ID.Hex()),
		zap.String("owner_id", userID.Hex()))
	h.Audit.WorkspaceCreated(ctx, r, userID, created.ID, created.Name)
	httpapi.JSON(w, http.StatusCreated, toResponse(created, models.RoleOwner))
}

// Package auth serves the credential endpoints: register, login, and the
// signed-in user's own profile.
package auth

import (
	"context"
	"net/http"

	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	userstore "github.com/loftwork/loftwork/internal/app/store/users"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/auditlog"
	"github.com/loftwork/loftwork/internal/app/system/authz"
	"github.com/loftwork/loftwork/internal/app/system/htmlsanitize"
	"github.com/loftwork/loftwork/internal/app/system/httpapi"
	"github.com/loftwork/loftwork/internal/app/system/identity"
	"github.com/loftwork/loftwork/internal/app/system/policy"
	"github.com/loftwork/loftwork/internal/app/system/ratelimit"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/app/system/tokens"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler provides HTTP handlers for registration, login, and profile.
type Handler struct {
	Identity *identity.Resolver
	Tokens   *tokens.Service
	Users    *userstore.Store
	Members  *memberstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger

	// Limiters are nil-safe; a zero Handler skips rate limiting.
	Logins        *ratelimit.LoginLimiter
	Registrations *ratelimit.Limiter
}

func NewHandler(res *identity.Resolver, tok *tokens.Service, users *userstore.Store, members *memberstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Identity:      res,
		Tokens:        tok,
		Users:         users,
		Members:       members,
		Audit:         audit,
		Log:           logger,
		Logins:        ratelimit.NewLoginLimiter(),
		Registrations: ratelimit.NewRegistrationLimiter(),
	}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if h.Registrations != nil && !h.Registrations.Allow(ratelimit.ClientIP(r)) {
		httpapi.Error(w, http.StatusTooManyRequests, "too many registration attempts, please wait a minute")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Identity.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	h.Audit.Register(ctx, r, user.ID, user.Email)

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, sessionResponse{Token: token, User: *user})
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if h.Logins != nil {
		if allowed, reason := h.Logins.Check(r, req.Email); !allowed {
			h.Audit.LoginRateLimited(r.Context(), r, req.Email)
			httpapi.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Identity.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.Audit.LoginFailed(ctx, r, req.Email)
		httpapi.Fail(w, h.Log, err)
		return
	}
	if h.Logins != nil {
		h.Logins.ResetEmail(req.Email)
	}
	h.Audit.LoginSuccess(ctx, r, user.ID, user.Email)

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, sessionResponse{Token: token, User: *user})
}

// ServeMe handles GET /me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, user)
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

// HandleUpdateProfile handles PATCH /me.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req profileRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := htmlsanitize.Plain(req.DisplayName)
	if name == "" {
		httpapi.Error(w, http.StatusBadRequest, "display_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateDisplayName(ctx, userID, name); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, user)
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password,omitempty"`
	Password        string `json:"password"`
}

// HandleSetPassword handles PUT /me/password. Accounts that already hold a
// password must present it; a federated-only account sets its first password
// here and can use credential login afterwards.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req setPasswordRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Identity.SetPassword(ctx, userID, req.CurrentPassword, req.Password); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type switchWorkspaceRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

// HandleSwitchWorkspace handles PUT /me/workspace. It updates the cached
// current-workspace pointer. The caller must be a member of the target;
// nothing else ever trusts the pointer, but handing out a dangling one
// would just confuse clients.
func (h *Handler) HandleSwitchWorkspace(w http.ResponseWriter, r *http.Request) {
	cu, _ := sysauth.CurrentUser(r)
	userID, ok := sysauth.UserID(cu)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req switchWorkspaceRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	workspaceID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, "invalid workspace_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.Require(ctx, h.Members, userID, workspaceID, policy.ViewWorkspace); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	if err := h.Users.SetCurrentWorkspace(ctx, userID, workspaceID); err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

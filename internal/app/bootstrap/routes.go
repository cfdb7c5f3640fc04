// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authfeature "github.com/loftwork/loftwork/internal/app/features/auth"
	authgooglefeature "github.com/loftwork/loftwork/internal/app/features/authgoogle"
	healthfeature "github.com/loftwork/loftwork/internal/app/features/health"
	invitesfeature "github.com/loftwork/loftwork/internal/app/features/invites"
	projectsfeature "github.com/loftwork/loftwork/internal/app/features/projects"
	tasksfeature "github.com/loftwork/loftwork/internal/app/features/tasks"
	workspacesfeature "github.com/loftwork/loftwork/internal/app/features/workspaces"
	accountstore "github.com/loftwork/loftwork/internal/app/store/accounts"
	auditstore "github.com/loftwork/loftwork/internal/app/store/audit"
	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	oauthstate "github.com/loftwork/loftwork/internal/app/store/oauthstate"
	userstore "github.com/loftwork/loftwork/internal/app/store/users"
	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	"github.com/loftwork/loftwork/internal/app/system/auditlog"
	"github.com/loftwork/loftwork/internal/app/system/auth"
	"github.com/loftwork/loftwork/internal/app/system/identity"
	"github.com/loftwork/loftwork/internal/app/system/invites"
	"github.com/loftwork/loftwork/internal/app/system/tokens"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Stores and services are built here from
// the shared database handle and threaded into the feature handlers.
//
// Every route runs behind LoadTokenUser, which resolves the bearer token
// to a fresh user document so disabled accounts and profile changes take
// effect on the next request. Routes that need a signed-in user gate
// themselves with RequireSignedIn inside their feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	accounts := accountstore.New(db)
	workspaces := workspacestore.New(db)
	members := memberstore.New(db)

	tok := tokens.New(appCfg.TokenSecret, appCfg.TokenTTL)
	resolver := identity.New(users, accounts, logger)
	inviteSvc := invites.New(workspaces, members, appCfg.InviteCodeLength, logger)
	auditLogger := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Workspace: appCfg.AuditLogWorkspace,
	})

	r := chi.NewRouter()

	// Global auth middleware: resolves the Authorization header into the
	// request context. Anonymous requests pass through untouched.
	r.Use(auth.LoadTokenUser(tok, users, logger))

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Credential auth and the signed-in user's own profile.
	authHandler := authfeature.NewHandler(resolver, tok, users, members, auditLogger, logger)
	r.Mount("/auth", authfeature.Routes(authHandler))
	r.Mount("/me", authfeature.MeRoutes(authHandler))

	// Google sign-in is mounted only when credentials are configured.
	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(
			resolver, tok, oauthstate.New(db), auditLogger,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret,
			appCfg.BaseURL, appCfg.FrontendURL, appCfg.OAuthStateSecret,
			logger,
		)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	// Workspaces with nested projects and tasks.
	taskHandler := tasksfeature.NewHandler(db, logger)
	projectHandler := projectsfeature.NewHandler(db, logger)
	workspaceHandler := workspacesfeature.NewHandler(db, inviteSvc, auditLogger, logger)
	r.Mount("/workspaces", workspacesfeature.Routes(workspaceHandler, projectHandler, taskHandler))

	// Invite redemption.
	inviteHandler := invitesfeature.NewHandler(inviteSvc, auditLogger, logger)
	r.Mount("/invites", invitesfeature.Routes(inviteHandler))

	return r, nil
}

// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/go-chi/chi/v5"
	"github.com/loftwork/loftwork/internal/app/features/projects"
	"github.com/loftwork/loftwork/internal/app/features/tasks"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
)

// Routes mounts all workspace routes, with project and task routes nested
// under /{id}/projects. Everything here requires a signed-in user; the
// per-workspace permission checks live in the handlers.
func Routes(h *Handler, ph *projects.Handler, th *tasks.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)

	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Delete("/", h.HandleDelete)

		r.Post("/invite/regenerate", h.HandleRegenerateInvite)

		r.Get("/members", h.ServeMembers)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
		r.Put("/members/{userID}/role", h.HandleChangeRole)

		r.Mount("/projects", projects.Routes(ph, th))
	})

	return r
}

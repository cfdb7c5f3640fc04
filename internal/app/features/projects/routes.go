// internal/app/features/projects/routes.go
package projects

import (
	"github.com/go-chi/chi/v5"
	"github.com/loftwork/loftwork/internal/app/features/tasks"
)

// Routes returns the project subrouter, mounted under
// /workspaces/{id}/projects. Task routes nest one level deeper.
func Routes(h *Handler, th *tasks.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)

	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Patch("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)

		r.Mount("/tasks", tasks.Routes(th))
	})

	return r
}

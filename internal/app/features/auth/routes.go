// internal/app/features/auth/routes.go
package auth

import (
	"github.com/go-chi/chi/v5"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
)

// Routes mounts the public credential endpoints (under /auth).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	return r
}

// MeRoutes mounts the signed-in user's profile endpoints (under /me).
func MeRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)
	r.Get("/", h.ServeMe)
	r.Patch("/", h.HandleUpdateProfile)
	r.Put("/password", h.HandleSetPassword)
	r.Put("/workspace", h.HandleSwitchWorkspace)
	return r
}

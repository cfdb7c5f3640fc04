// internal/app/features/invites/routes.go
package invites

import (
	"github.com/go-chi/chi/v5"
	sysauth "github.com/loftwork/loftwork/internal/app/system/auth"
)

// Routes mounts the redemption endpoint (under /invites).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireSignedIn)
	r.Post("/redeem", h.HandleRedeem)
	return r
}

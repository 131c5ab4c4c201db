// internal/app/features/privacy/routes.go
package privacy

import (
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the privacy endpoints; bootstrap mounts it at /privacy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeSettings)
		pr.Patch("/", h.HandleUpdate)
		pr.Get("/audit", h.ServeAudit)
	})

	return r
}

// internal/app/features/settings/routes.go
package settings

import (
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the settings endpoints; bootstrap mounts it at /admin/settings.
// All routes require a platform admin.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "superadmin"))

		pr.Get("/", h.ServeSettings)
		pr.Put("/", h.HandleSettings)
	})

	return r
}

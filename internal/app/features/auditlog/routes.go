// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit and alert endpoints under the path where this
// router is mounted (typically "/admin" from bootstrap).
//
// Access is restricted to platform admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "superadmin"))

		pr.Get("/audit", h.ServeList)
		pr.Get("/alerts", h.ServeAlerts)
		pr.Post("/alerts/{id}/resolve", h.HandleResolveAlert)
	})

	return r
}

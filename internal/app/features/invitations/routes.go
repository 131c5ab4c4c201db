// internal/app/features/invitations/routes.go
package invitations

import (
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the invitation endpoints; bootstrap mounts it at /invitations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMine)
		pr.Post("/{id}/{action}", h.HandleAction)
	})

	return r
}

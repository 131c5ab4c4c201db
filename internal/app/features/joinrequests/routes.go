// internal/app/features/joinrequests/routes.go
package joinrequests

import (
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the join request endpoints; bootstrap mounts it at /join-requests.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}/resolve", h.HandleResolve)
	})

	return r
}

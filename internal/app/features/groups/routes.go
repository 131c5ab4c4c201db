// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group endpoints; bootstrap mounts it at /groups.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Post("/{groupID}/join", h.HandleJoin)
		pr.Post("/{groupID}/leave", h.HandleLeave)

		pr.Post("/{groupID}/invitations", h.HandleCreateInvitation)
		pr.Get("/{groupID}/invitations", h.ServeGroupInvitations)

		pr.Post("/{groupID}/join-requests", h.HandleSubmitJoinRequest)
		pr.Get("/{groupID}/join-requests", h.ServeJoinRequests)
	})

	return r
}

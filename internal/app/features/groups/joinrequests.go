// internal/app/features/groups/joinrequests.go
package groups

import (
	"net/http"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/domain/models"
)

// HandleSubmitJoinRequest handles POST /groups/{groupID}/join-requests.
func (h *Handler) HandleSubmitJoinRequest(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	gid, ok := groupID(r)
	if !ok {
		uierrors.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit join request")
	defer cancel()

	jr, err := h.Engine.SubmitJoinRequest(ctx, gid, userID)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, jr)
}

// ServeJoinRequests handles GET /groups/{groupID}/join-requests: the
// pending queue, oldest first.
func (h *Handler) ServeJoinRequests(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	gid, ok := groupID(r)
	if !ok {
		uierrors.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list join requests")
	defer cancel()

	list, err := h.Engine.ListPendingJoinRequests(ctx, gid, actorID)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.JoinRequest{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"join_requests": list})
}

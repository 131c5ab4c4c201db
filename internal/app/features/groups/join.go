// internal/app/features/groups/join.go
package groups

import (
	"net/http"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
)

// HandleJoin handles POST /groups/{groupID}/join for the signed-in user.
//
// 201 with the JoinResult on success; an exclusivity refusal is a 403 that
// names the professional group the user already belongs to.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join group")
	defer cancel()

	res, err := h.Engine.JoinGroup(ctx, userID, gid)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, res)
}

// HandleLeave handles POST /groups/{groupID}/leave for the signed-in user.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave group")
	defer cancel()

	if err := h.Engine.LeaveGroup(ctx, userID, gid); err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// internal/app/features/groups/invitations.go
package groups

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createInvitationRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// HandleCreateInvitation handles POST /groups/{groupID}/invitations.
//
//	{ "user_id": "<hex>", "message": "optional note" }
func (h *Handler) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
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

	var req createInvitationRequest
	if err := uierrors.DecodeJSON(r, &req, false); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	target, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.UserID))
	if err != nil {
		uierrors.BadRequest(w, "invalid user_id")
		return
	}

	if h.Invites != nil && !h.Invites.Allow(actorID.Hex()) {
		h.Log.Warn("invitation rate limit hit", zap.String("actor_id", actorID.Hex()))
		uierrors.TooManyRequests(w, "too many invitations sent; try again in a minute")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create invitation")
	defer cancel()

	inv, err := h.Engine.CreateInvitation(ctx, gid, actorID, target, req.Message)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, inv)
}

var invitationStatuses = map[string]bool{
	models.InvitationPending:   true,
	models.InvitationAccepted:  true,
	models.InvitationRejected:  true,
	models.InvitationExpired:   true,
	models.InvitationCancelled: true,
}

// ServeGroupInvitations handles GET /groups/{groupID}/invitations?status=.
func (h *Handler) ServeGroupInvitations(w http.ResponseWriter, r *http.Request) {
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
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !invitationStatuses[status] {
		uierrors.BadRequest(w, "unknown invitation status")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list group invitations")
	defer cancel()

	list, err := h.Engine.ListGroupInvitations(ctx, gid, actorID, status)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Invitation{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"invitations": list})
}

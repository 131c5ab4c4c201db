// internal/app/features/joinrequests/handler.go
package joinrequests

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves join request resolution.
type Handler struct {
	Engine *membership.Engine
	Log    *zap.Logger
}

// NewHandler constructs a join requests Handler.
func NewHandler(engine *membership.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: engine,
		Log:    logger,
	}
}

type resolveRequest struct {
	Action string `json:"action"`
	Note   string `json:"note"`
}

// HandleResolve handles POST /join-requests/{id}/resolve.
//
//	{ "action": "approve" | "reject", "note": "optional, kept on reject" }
//
// The response reports which authority approved: "group" for the group's own
// admins and moderators, "platform" for a platform admin acting on a group
// with no admin.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	_, _, resolverID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "invalid join request id")
		return
	}

	var req resolveRequest
	if err := uierrors.DecodeJSON(r, &req, false); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resolve join request")
	defer cancel()

	out, err := h.Engine.ResolveJoinRequest(ctx, id, strings.ToLower(strings.TrimSpace(req.Action)), resolverID, req.Note)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

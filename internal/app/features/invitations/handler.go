// internal/app/features/invitations/handler.go
package invitations

import (
	"net/http"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's invitations and the invitation actions.
type Handler struct {
	Engine *membership.Engine
	Log    *zap.Logger
}

// NewHandler constructs an invitations Handler.
func NewHandler(engine *membership.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: engine,
		Log:    logger,
	}
}

// ServeMine handles GET /invitations: the caller's pending, unexpired invitations.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list my invitations")
	defer cancel()

	list, err := h.Engine.ListPendingInvitationsForUser(ctx, userID)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Invitation{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"invitations": list})
}

// HandleAction handles POST /invitations/{id}/{action}, where action is
// accept, decline, cancel, or resend.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "invalid invitation id")
		return
	}
	action := chi.URLParam(r, "action")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "invitation "+action)
	defer cancel()

	out, err := h.Engine.ResolveInvitation(ctx, id, action, actorID)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

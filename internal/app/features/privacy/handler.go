// internal/app/features/privacy/handler.go
package privacy

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's privacy settings endpoints.
type Handler struct {
	Engine *membership.Engine
	Log    *zap.Logger
}

// NewHandler constructs a privacy Handler.
func NewHandler(engine *membership.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: engine,
		Log:    logger,
	}
}

// ServeSettings handles GET /privacy.
//
//	{ "settings": {...}, "forced_fields": ["show_email", ...] }
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get privacy settings")
	defer cancel()

	view, err := h.Engine.GetPrivacySettings(ctx, userID)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, view)
}

// HandleUpdate handles PATCH /privacy. The body maps privacy field names to
// their new values:
//
//	{ "show_email": false, "show_bio": true }
//
// Fields the user's category forces hidden come back in blocked_fields and
// are not saved; that is still a 200.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var changes map[string]bool
	if err := uierrors.DecodeJSON(r, &changes, false); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	if len(changes) == 0 {
		uierrors.BadRequest(w, "no privacy fields given")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update privacy settings")
	defer cancel()

	out, err := h.Engine.UpdatePrivacySettings(ctx, userID, changes)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

// ServeAudit handles GET /privacy/audit?limit=N: the caller's privacy
// history, newest first.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var limit int64
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			uierrors.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list privacy audit")
	defer cancel()

	entries, err := h.Engine.ListPrivacyAudit(ctx, userID, limit)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	if entries == nil {
		entries = []models.PrivacyAuditLogEntry{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

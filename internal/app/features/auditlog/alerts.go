// internal/app/features/auditlog/alerts.go
package auditlog

import (
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeAlerts handles GET /admin/alerts?limit=N: unresolved alerts, newest first.
func (h *Handler) ServeAlerts(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if n, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && n > 0 {
		limit = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list admin alerts")
	defer cancel()

	alerts, err := h.Alerts.ListUnresolved(ctx, limit)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	if alerts == nil {
		alerts = []models.AdminAlert{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// HandleResolveAlert handles POST /admin/alerts/{id}/resolve.
func (h *Handler) HandleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "invalid alert id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "resolve admin alert")
	defer cancel()

	if err := h.Alerts.Resolve(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.NotFound(w, "alert not found")
			return
		}
		uierrors.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("admin alert resolved", zap.String("alert_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

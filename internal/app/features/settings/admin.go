// internal/app/features/settings/admin.go
package settings

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeSettings handles GET /admin/settings.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load settings")
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, settings)
}

// settingsUpdate carries the editable fields. Omitted fields keep their value.
type settingsUpdate struct {
	SiteName            *string `json:"site_name"`
	AllowPrivacyChanges *bool   `json:"allow_privacy_changes"`
}

// HandleSettings handles PUT /admin/settings.
//
//	{ "site_name": "Guildhall", "allow_privacy_changes": false }
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var req settingsUpdate
	if err := uierrors.DecodeJSON(r, &req, false); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "save settings")
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	if req.SiteName != nil {
		siteName := strings.TrimSpace(*req.SiteName)
		if siteName == "" {
			uierrors.BadRequest(w, "site_name cannot be empty")
			return
		}
		settings.SiteName = siteName
	}
	if req.AllowPrivacyChanges != nil {
		settings.AllowPrivacyChanges = *req.AllowPrivacyChanges
	}
	settings.UpdatedByID = &userID
	settings.UpdatedByName = name

	if err := h.Settings.Save(ctx, settings); err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}

	h.Log.Info("site settings updated",
		zap.String("updated_by", userID.Hex()),
		zap.Bool("allow_privacy_changes", settings.AllowPrivacyChanges))

	saved, err := h.Settings.Get(ctx)
	if err != nil {
		uierrors.Write(w, r, h.Log, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, saved)
}

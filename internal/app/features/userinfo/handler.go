// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	membershipstore "github.com/dalemusser/guildhall/internal/app/store/memberships"
	"github.com/dalemusser/guildhall/internal/app/system/auth"
	"github.com/dalemusser/guildhall/internal/app/system/authz"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves user information for authenticated sessions.
type Handler struct {
	Members *membershipstore.Store
	Log     *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Members: membershipstore.New(db),
		Log:     logger,
	}
}

type membershipView struct {
	GroupID        string `json:"group_id"`
	Role           string `json:"role"`
	IsProfessional bool   `json:"is_professional"`
}

// ServeUserInfo returns JSON with the current user's authentication status,
// identity, and group memberships.
//
// Response format:
//
//	{ "isAuthenticated": bool, "id": "...", "name": "...", "email": "...", "role": "...",
//	  "memberships": [{ "group_id": "...", "role": "member", "is_professional": true }] }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteJSON(w, http.StatusOK, map[string]any{
			"isAuthenticated": false,
			"name":            "",
			"email":           "",
		})
		return
	}

	views := []membershipView{}
	if _, _, userID, ok := authz.UserCtx(r); ok {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "userinfo memberships")
		defer cancel()

		ms, err := h.Members.ListByUser(ctx, userID)
		if err != nil {
			uierrors.Write(w, r, h.Log, err)
			return
		}
		for _, m := range ms {
			views = append(views, membershipView{
				GroupID:        m.GroupID.Hex(),
				Role:           m.Role,
				IsProfessional: m.GroupKind == models.GroupKindProfessional,
			})
		}
	}

	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"isAuthenticated": true,
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role,
		"memberships":     views,
	})
}

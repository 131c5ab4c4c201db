// internal/app/features/groups/handler.go
package groups

import (
	"net/http"
	"time"

	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the group-scoped membership endpoints: joining and leaving,
// a group's invitations, and its join request queue.
type Handler struct {
	Engine *membership.Engine
	Log    *zap.Logger

	// Invites caps how many invitations one user may send per minute.
	Invites *ratelimit.Limiter
}

// InvitesPerMinute is the default per-user invitation send rate.
const InvitesPerMinute = 30

// NewHandler constructs a groups Handler over the membership engine.
func NewHandler(engine *membership.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine:  engine,
		Log:     logger,
		Invites: ratelimit.New(InvitesPerMinute, time.Minute),
	}
}

func groupID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	return id, err == nil
}

// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/guildhall/internal/app/features/errors"
	"github.com/dalemusser/guildhall/internal/app/store/audit"
	"github.com/dalemusser/guildhall/internal/app/system/paging"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// eventView is the JSON shape of one audit event.
type eventView struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	UserID        string            `json:"user_id,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	GroupID       string            `json:"group_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func toView(e audit.Event) eventView {
	return eventView{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		UserID:        hexOrEmpty(e.UserID),
		ActorID:       hexOrEmpty(e.ActorID),
		GroupID:       hexOrEmpty(e.GroupID),
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
}

// ServeList handles GET /admin/audit.
//
// Query parameters: category, event_type, user_id, group_id, start_date and
// end_date (YYYY-MM-DD, end inclusive), start (1-based row index).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start := paging.ParseStart(r)

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     paging.PageSize,
		Offset:    paging.Offset(start),
	}

	for _, p := range []struct {
		key string
		dst **primitive.ObjectID
	}{
		{"user_id", &filter.UserID},
		{"group_id", &filter.GroupID},
	} {
		s := strings.TrimSpace(q.Get(p.key))
		if s == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			uierrors.BadRequest(w, "invalid "+p.key)
			return
		}
		*p.dst = &id
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			uierrors.BadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			uierrors.BadRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		uierrors.Write(w, r, h.Log, err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		uierrors.Write(w, r, h.Log, err)
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toView(e))
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"events": views,
		"total":  total,
		"range":  paging.ComputeRange(start, len(views), total),
	})
}

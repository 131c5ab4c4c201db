// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/guildhall/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Membership controls logging for joins, leaves, invitations, and join requests.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Membership string
	// Privacy controls logging for privacy edits and category cascades.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Privacy string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type requestInfo struct {
	ip        string
	userAgent string
}

type ctxKey struct{}

// Middleware records the caller's IP and user agent in the request context so
// events logged deeper in the stack (where there is no *http.Request) carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKey{}, requestInfo{
			ip:        getClientIP(r),
			userAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For may hold a chain; the first hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryMembership:
		setting = l.config.Membership
	case audit.CategoryPrivacy:
		setting = l.config.Privacy
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if info, ok := ctx.Value(ctxKey{}).(requestInfo); ok {
		if event.IP == "" {
			event.IP = info.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = info.userAgent
		}
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Membership Events ---

// MemberJoined logs a new membership. via names the path: direct, invitation, or join_request.
func (l *Logger) MemberJoined(ctx context.Context, actorID, userID, groupID primitive.ObjectID, role, via string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventMemberJoined,
		UserID:    &userID,
		ActorID:   &actorID,
		GroupID:   &groupID,
		Success:   true,
		Details: map[string]string{
			"role": role,
			"via":  via,
		},
	})
}

// MemberLeft logs a membership removal.
func (l *Logger) MemberLeft(ctx context.Context, userID, groupID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventMemberLeft,
		UserID:    &userID,
		ActorID:   &userID,
		GroupID:   &groupID,
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// JoinRejectedExclusivity logs a join refused because the user already holds
// a member role in another professional group.
func (l *Logger) JoinRejectedExclusivity(ctx context.Context, userID, groupID, heldGroupID primitive.ObjectID, via string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryMembership,
		EventType:     audit.EventJoinRejectedExclusivity,
		UserID:        &userID,
		GroupID:       &groupID,
		Success:       false,
		FailureReason: "already a member of another professional group",
		Details: map[string]string{
			"held_group_id": heldGroupID.Hex(),
			"via":           via,
		},
	})
}

// Invitation logs an invitation lifecycle event (created, accepted, declined, cancelled, resent).
func (l *Logger) Invitation(ctx context.Context, eventType string, actorID, userID, groupID, invitationID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: eventType,
		UserID:    &userID,
		ActorID:   &actorID,
		GroupID:   &groupID,
		Success:   true,
		Details:   map[string]string{"invitation_id": invitationID.Hex()},
	})
}

// InvitationsExpired logs one sweep of overdue invitations.
func (l *Logger) InvitationsExpired(ctx context.Context, count int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: audit.EventInvitationsExpired,
		Success:   true,
		Details:   map[string]string{"count": strconv.FormatInt(count, 10)},
	})
}

// JoinRequest logs a join request event. authority is "group" or "platform"
// for resolutions and empty for submissions.
func (l *Logger) JoinRequest(ctx context.Context, eventType string, actorID, userID, groupID, requestID primitive.ObjectID, authority string) {
	details := map[string]string{"join_request_id": requestID.Hex()}
	if authority != "" {
		details["authority"] = authority
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: eventType,
		UserID:    &userID,
		ActorID:   &actorID,
		GroupID:   &groupID,
		Success:   true,
		Details:   details,
	})
}

// --- Privacy Events ---

// PrivacyUpdated logs a user's privacy edit, including any fields that were
// dropped because a category forces them hidden.
func (l *Logger) PrivacyUpdated(ctx context.Context, actorID, userID primitive.ObjectID, changed, blocked []string) {
	details := map[string]string{"changed": strings.Join(changed, ",")}
	if len(blocked) > 0 {
		details["blocked"] = strings.Join(blocked, ",")
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPrivacy,
		EventType: audit.EventPrivacyUpdated,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   details,
	})
}

// PrivacyChangesDisabled logs a privacy edit refused by the platform switch.
func (l *Logger) PrivacyChangesDisabled(ctx context.Context, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryPrivacy,
		EventType:     audit.EventPrivacyChangesDisabled,
		UserID:        &userID,
		ActorID:       &userID,
		Success:       false,
		FailureReason: "privacy changes are disabled",
	})
}

// PrivacyCascadeApplied logs the force-hides applied when a user joined a
// professional group bound to a sensitive job category.
func (l *Logger) PrivacyCascadeApplied(ctx context.Context, userID, groupID, categoryID primitive.ObjectID, fields []string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPrivacy,
		EventType: audit.EventPrivacyCascadeApplied,
		UserID:    &userID,
		GroupID:   &groupID,
		Success:   true,
		Details: map[string]string{
			"category_id": categoryID.Hex(),
			"fields":      strings.Join(fields, ","),
		},
	})
}

// PrivacyFieldsBlocked logs fields a user tried to reveal while a category
// forces them hidden.
func (l *Logger) PrivacyFieldsBlocked(ctx context.Context, userID primitive.ObjectID, categoryID *primitive.ObjectID, blocked []string) {
	details := map[string]string{"fields": strings.Join(blocked, ",")}
	if categoryID != nil {
		details["category_id"] = categoryID.Hex()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryPrivacy,
		EventType:     audit.EventPrivacyFieldsBlocked,
		UserID:        &userID,
		ActorID:       &userID,
		Success:       false,
		FailureReason: "fields forced hidden by job category",
		Details:       details,
	})
}

// internal/app/membership/engine.go
//
// Package membership is the group membership and privacy enforcement engine.
// It owns the rules for who may join which group, the invitation and join
// request lifecycles, and the category cascade onto privacy settings.
//
// Each top-level operation runs its reads and writes in one MongoDB
// transaction. Notifications, admin alerts, and audit events are written only
// after the transaction has committed (or, for alerts, rolled back), and their
// failures are logged and swallowed.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/guildhall/internal/app/policy/grouppolicy"
	alertstore "github.com/dalemusser/guildhall/internal/app/store/alerts"
	categorystore "github.com/dalemusser/guildhall/internal/app/store/categories"
	groupstore "github.com/dalemusser/guildhall/internal/app/store/groups"
	invitationstore "github.com/dalemusser/guildhall/internal/app/store/invitations"
	joinrequeststore "github.com/dalemusser/guildhall/internal/app/store/joinrequests"
	membershipstore "github.com/dalemusser/guildhall/internal/app/store/memberships"
	notificationstore "github.com/dalemusser/guildhall/internal/app/store/notifications"
	privacystore "github.com/dalemusser/guildhall/internal/app/store/privacy"
	privacyauditstore "github.com/dalemusser/guildhall/internal/app/store/privacyaudit"
	settingsstore "github.com/dalemusser/guildhall/internal/app/store/settings"
	userstore "github.com/dalemusser/guildhall/internal/app/store/users"
	"github.com/dalemusser/guildhall/internal/app/system/auditlog"
	"github.com/dalemusser/guildhall/internal/app/system/metrics"
	"github.com/dalemusser/guildhall/internal/app/system/timeouts"
	"github.com/dalemusser/guildhall/internal/app/system/txn"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Join paths, recorded on audit events and metrics.
const (
	ViaDirect      = "direct"
	ViaInvitation  = "invitation"
	ViaJoinRequest = "join_request"
)

// Engine runs membership and privacy operations against one database.
type Engine struct {
	db  *mongo.Database
	log *zap.Logger

	groups        *groupstore.Store
	members       *membershipstore.Store
	invitations   *invitationstore.Store
	joinRequests  *joinrequeststore.Store
	categories    *categorystore.Store
	privacy       *privacystore.Store
	privacyAudit  *privacyauditstore.Store
	alerts        *alertstore.Store
	notifications *notificationstore.Store
	settings      *settingsstore.Store
	users         *userstore.Store

	audit   *auditlog.Logger
	metrics *metrics.Metrics

	invitationTTL       time.Duration
	requireTransactions bool
	now                 func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithAuditLogger records membership and privacy events through l.
func WithAuditLogger(l *auditlog.Logger) Option {
	return func(e *Engine) { e.audit = l }
}

// WithMetrics records engine metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithInvitationTTL overrides how long a new or resent invitation stays valid.
func WithInvitationTTL(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.invitationTTL = d
		}
	}
}

// WithRequiredTransactions makes operations fail instead of running without a
// transaction when the deployment does not support them.
func WithRequiredTransactions(required bool) Option {
	return func(e *Engine) { e.requireTransactions = required }
}

// WithClock replaces time.Now. Tests use it to move past invitation expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over db.
func New(db *mongo.Database, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		db:            db,
		log:           logger,
		groups:        groupstore.New(db),
		members:       membershipstore.New(db),
		invitations:   invitationstore.New(db),
		joinRequests:  joinrequeststore.New(db),
		categories:    categorystore.New(db),
		privacy:       privacystore.New(db),
		privacyAudit:  privacyauditstore.New(db),
		alerts:        alertstore.New(db),
		notifications: notificationstore.New(db),
		settings:      settingsstore.New(db),
		users:         userstore.New(db),
		invitationTTL: models.InvitationTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// inTxn runs fn in a transaction. fn may run more than once, so it must only
// touch the database and its own locals.
func (e *Engine) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.requireTransactions {
		return txn.RunRequired(ctx, e.db, e.log, fn)
	}
	return txn.Run(ctx, e.db, e.log, fn)
}

func (e *Engine) loadGroup(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	g, err := e.groups.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, notFound("group not found")
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("load group: %w", err)
	}
	return g, nil
}

func (e *Engine) loadUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := e.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// actor describes actorID relative to groupID. An actor that does not exist
// has no authority at all.
func (e *Engine) actor(ctx context.Context, actorID, groupID primitive.ObjectID) (grouppolicy.Actor, error) {
	u, err := e.users.GetByID(ctx, actorID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return grouppolicy.Actor{}, nil
	}
	if err != nil {
		return grouppolicy.Actor{}, fmt.Errorf("load actor: %w", err)
	}
	a := grouppolicy.Actor{IsPlatformAdmin: u.IsPlatformAdmin()}

	m, err := e.members.Get(ctx, groupID, actorID)
	switch {
	case err == nil:
		a.MemberRole = m.Role
	case !errors.Is(err, mongo.ErrNoDocuments):
		return grouppolicy.Actor{}, fmt.Errorf("load actor membership: %w", err)
	}
	return a, nil
}

// raiseExclusivityAlert writes the admin alert for a refused professional join.
// It runs after the refusing transaction has rolled back, on a context that
// survives the caller's cancellation. Failures are logged, never returned.
func (e *Engine) raiseExclusivityAlert(ctx context.Context, xerr *ExclusivityError, via string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()

	if xerr.HeldGroupID.IsZero() {
		// The refusal came from the unique index, so the held group was not read.
		if m, err := e.members.FindProfessionalMember(ctx, xerr.UserID, xerr.RequestedGroupID); err == nil {
			xerr.HeldGroupID = m.GroupID
			if g, err := e.groups.GetByID(ctx, m.GroupID); err == nil {
				xerr.HeldGroupName = g.Name
			}
		}
	}

	e.metrics.IncrementExclusivityViolation()
	e.audit.JoinRejectedExclusivity(ctx, xerr.UserID, xerr.RequestedGroupID, xerr.HeldGroupID, via)

	alert := models.AdminAlert{
		CorrelationID: uuid.NewString(),
		UserID:        xerr.UserID,
		Type:          models.AlertMultipleProfessionalGroupAttempt,
		Severity:      models.SeverityMedium,
		Message: fmt.Sprintf("User attempted to join professional group %q while a member of %q",
			xerr.RequestedGroupName, xerr.HeldGroupName),
		Metadata: map[string]string{
			"held_group_id":        xerr.HeldGroupID.Hex(),
			"held_group_name":      xerr.HeldGroupName,
			"requested_group_id":   xerr.RequestedGroupID.Hex(),
			"requested_group_name": xerr.RequestedGroupName,
			"via":                  via,
		},
		CreatedAt: e.clock(),
	}
	if _, err := e.alerts.Create(ctx, alert); err != nil {
		e.metrics.IncrementAlertWriteFailure()
		e.log.Error("failed to write exclusivity alert",
			zap.Error(err),
			zap.String("correlation_id", alert.CorrelationID),
			zap.String("user_id", xerr.UserID.Hex()),
			zap.String("requested_group_id", xerr.RequestedGroupID.Hex()))
	}
}

// notify records a notification after commit. The dedupe key is derived from
// the event, so the single retry here cannot produce a second row.
func (e *Engine) notify(ctx context.Context, n models.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = e.clock()
	}
	if n.DedupeKey == "" {
		name := fmt.Sprintf("%s:%s:%s:%d", n.Type, n.RefID.Hex(), n.UserID.Hex(), n.CreatedAt.UnixNano())
		n.DedupeKey = uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if _, err = e.notifications.Create(ctx, n); err == nil {
			return
		}
	}
	e.log.Warn("failed to record notification",
		zap.Error(err),
		zap.String("type", n.Type),
		zap.String("user_id", n.UserID.Hex()),
		zap.String("dedupe_key", n.DedupeKey))
}

// internal/app/membership/join.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/guildhall/internal/app/policy/grouppolicy"
	"github.com/dalemusser/guildhall/internal/app/policy/privacypolicy"
	membershipstore "github.com/dalemusser/guildhall/internal/app/store/memberships"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// JoinResult is the outcome of a successful membership creation.
type JoinResult struct {
	Membership models.GroupMembership `json:"membership"`
	// CategoryAssigned is true when the group's sensitive job category was
	// bound to the user's privacy settings.
	CategoryAssigned bool `json:"category_assigned"`
	// CascadedFields lists the show_* flags the cascade switched off.
	CascadedFields []string `json:"cascaded_fields,omitempty"`
}

// JoinGroup adds userID to groupID as a member.
//
// For a professional group the user must not already hold a member role in
// another professional group; if the group is bound to a sensitive job
// category, the category's force-hides are applied to the user's privacy
// settings in the same transaction.
func (e *Engine) JoinGroup(ctx context.Context, userID, groupID primitive.ObjectID) (JoinResult, error) {
	defer e.metrics.ObserveOperation("join_group", time.Now())

	g, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return JoinResult{}, err
	}
	if !g.IsActive() {
		return JoinResult{}, invalidState("group %q is not active", g.Name)
	}
	if g.RequiresApproval {
		return JoinResult{}, invalidState("group %q requires approval; submit a join request", g.Name)
	}
	if _, err := e.loadUser(ctx, userID); err != nil {
		return JoinResult{}, err
	}

	var res JoinResult
	err = e.inTxn(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.addMember(ctx, g, userID, models.RoleMember)
		return err
	})
	if err != nil {
		e.afterRefusedJoin(ctx, err, ViaDirect)
		return JoinResult{}, err
	}

	e.afterJoin(ctx, userID, userID, g, res, ViaDirect)
	return res, nil
}

// addMember is the single membership-creation path. It must run inside a
// transaction: the exclusivity read, the insert, the counter, and the cascade
// commit or roll back together.
func (e *Engine) addMember(ctx context.Context, g models.Group, userID primitive.ObjectID, role string) (JoinResult, error) {
	if g.IsProfessional() && !grouppolicy.ExemptFromExclusivity(role) {
		held, err := e.members.FindProfessionalMember(ctx, userID, g.ID)
		switch {
		case err == nil:
			xerr := &ExclusivityError{
				UserID:             userID,
				HeldGroupID:        held.GroupID,
				RequestedGroupID:   g.ID,
				RequestedGroupName: g.Name,
			}
			if hg, err := e.groups.GetByID(ctx, held.GroupID); err == nil {
				xerr.HeldGroupName = hg.Name
			}
			return JoinResult{}, xerr
		case !errors.Is(err, mongo.ErrNoDocuments):
			return JoinResult{}, fmt.Errorf("exclusivity check: %w", err)
		}
	}

	m, err := e.members.Add(ctx, g, userID, role)
	switch {
	case errors.Is(err, membershipstore.ErrDuplicateMembership):
		return JoinResult{}, conflict("already a member of group %q", g.Name)
	case errors.Is(err, membershipstore.ErrProfessionalConflict):
		// A concurrent join won the race past the read above.
		return JoinResult{}, &ExclusivityError{UserID: userID, RequestedGroupID: g.ID, RequestedGroupName: g.Name}
	case err != nil:
		return JoinResult{}, fmt.Errorf("add membership: %w", err)
	}

	if _, err := e.groups.IncMemberCount(ctx, g.ID, 1); err != nil {
		return JoinResult{}, fmt.Errorf("increment member count: %w", err)
	}

	res := JoinResult{Membership: m}
	if role == models.RoleMember {
		assigned, fields, err := e.cascade(ctx, userID, g)
		if err != nil {
			return JoinResult{}, err
		}
		res.CategoryAssigned = assigned
		res.CascadedFields = fields
	}
	return res, nil
}

// cascade binds g's category to the user's privacy settings and forces off
// every dimension it hides. One audit entry is appended per flag that changed.
func (e *Engine) cascade(ctx context.Context, userID primitive.ObjectID, g models.Group) (bool, []string, error) {
	catID, ok := g.BoundCategory()
	if !ok {
		return false, nil, nil
	}
	cat, err := e.categories.GetByID(ctx, catID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		e.log.Warn("group bound to missing sensitive job category",
			zap.String("group_id", g.ID.Hex()),
			zap.String("category_id", catID.Hex()))
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("load category: %w", err)
	}

	now := e.clock()
	ps, _, err := e.privacy.GetOrDefault(ctx, userID, now)
	if err != nil {
		return false, nil, fmt.Errorf("load privacy settings: %w", err)
	}
	changes := privacypolicy.Cascade(&ps, &cat)
	ps.CategoryID = &catID
	groupID := g.ID
	ps.CategoryGroupID = &groupID
	if err := e.privacy.Save(ctx, ps, now); err != nil {
		return false, nil, fmt.Errorf("save privacy settings: %w", err)
	}

	reason := fmt.Sprintf("auto-assigned on joining group %s", g.Name)
	entries := auditEntries(userID, userID, models.ChangedByUser, reason, changes, now)
	if err := e.privacyAudit.Append(ctx, entries); err != nil {
		return false, nil, fmt.Errorf("append privacy audit: %w", err)
	}
	return true, changedFields(changes), nil
}

func auditEntries(userID, changedBy primitive.ObjectID, role, reason string, changes []privacypolicy.FieldChange, now time.Time) []models.PrivacyAuditLogEntry {
	out := make([]models.PrivacyAuditLogEntry, 0, len(changes))
	for _, c := range changes {
		out = append(out, models.PrivacyAuditLogEntry{
			ID:            primitive.NewObjectID(),
			UserID:        userID,
			ChangedBy:     changedBy,
			ChangedByRole: role,
			FieldChanged:  c.Field,
			OldValue:      c.OldValue,
			NewValue:      c.NewValue,
			Reason:        reason,
			Timestamp:     now,
		})
	}
	return out
}

func changedFields(changes []privacypolicy.FieldChange) []string {
	if len(changes) == 0 {
		return nil
	}
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Field
	}
	return out
}

// afterJoin records audit events and metrics for a committed membership.
func (e *Engine) afterJoin(ctx context.Context, actorID, userID primitive.ObjectID, g models.Group, res JoinResult, via string) {
	e.metrics.IncrementJoin(via)
	e.audit.MemberJoined(ctx, actorID, userID, g.ID, res.Membership.Role, via)
	if res.CategoryAssigned {
		catID, _ := g.BoundCategory()
		e.metrics.ObserveCascade(res.CascadedFields)
		e.audit.PrivacyCascadeApplied(ctx, userID, g.ID, catID, res.CascadedFields)
	}
}

// afterRefusedJoin raises the admin alert when err is an exclusivity refusal.
func (e *Engine) afterRefusedJoin(ctx context.Context, err error, via string) {
	var xerr *ExclusivityError
	if errors.As(err, &xerr) {
		e.raiseExclusivityAlert(ctx, xerr, via)
	}
}

// LeaveGroup removes userID's membership in groupID. Leaving the professional
// group that bound the user's category clears the binding; privacy flags are
// left as they are.
func (e *Engine) LeaveGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	defer e.metrics.ObserveOperation("leave_group", time.Now())

	g, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}

	var removed models.GroupMembership
	err = e.inTxn(ctx, func(ctx context.Context) error {
		m, err := e.members.Remove(ctx, g.ID, userID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound("not a member of group %q", g.Name)
		}
		if err != nil {
			return fmt.Errorf("remove membership: %w", err)
		}
		removed = m
		if _, err := e.groups.IncMemberCount(ctx, g.ID, -1); err != nil {
			return fmt.Errorf("decrement member count: %w", err)
		}
		return e.unbindCategory(ctx, userID, g.ID)
	})
	if err != nil {
		return err
	}

	e.audit.MemberLeft(ctx, userID, g.ID, removed.Role)
	return nil
}

func (e *Engine) unbindCategory(ctx context.Context, userID, groupID primitive.ObjectID) error {
	ps, err := e.privacy.Get(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load privacy settings: %w", err)
	}
	if ps.CategoryGroupID == nil || *ps.CategoryGroupID != groupID {
		return nil
	}
	ps.CategoryID = nil
	ps.CategoryGroupID = nil
	if err := e.privacy.Save(ctx, ps, e.clock()); err != nil {
		return fmt.Errorf("save privacy settings: %w", err)
	}
	return nil
}

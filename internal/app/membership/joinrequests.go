// internal/app/membership/joinrequests.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/guildhall/internal/app/policy/grouppolicy"
	"github.com/dalemusser/guildhall/internal/app/store/audit"
	joinrequeststore "github.com/dalemusser/guildhall/internal/app/store/joinrequests"
	"github.com/dalemusser/guildhall/internal/app/system/htmlsanitize"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Join request actions accepted by ResolveJoinRequest.
const (
	JoinRequestApprove = "approve"
	JoinRequestReject  = "reject"
)

// JoinRequestOutcome is the result of ResolveJoinRequest. Join is set only
// when the request was approved.
type JoinRequestOutcome struct {
	Request   models.JoinRequest `json:"request"`
	Authority string             `json:"authority"`
	Join      *JoinResult        `json:"join,omitempty"`
}

// SubmitJoinRequest files userID's request to join groupID. Only groups that
// require approval take requests; others are joined directly.
func (e *Engine) SubmitJoinRequest(ctx context.Context, groupID, userID primitive.ObjectID) (models.JoinRequest, error) {
	defer e.metrics.ObserveOperation("submit_join_request", time.Now())

	g, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if !g.IsActive() {
		return models.JoinRequest{}, invalidState("group %q is not active", g.Name)
	}
	if !g.RequiresApproval {
		return models.JoinRequest{}, invalidState("group %q does not require approval; join it directly", g.Name)
	}
	if _, err := e.loadUser(ctx, userID); err != nil {
		return models.JoinRequest{}, err
	}

	member, err := e.members.Exists(ctx, g.ID, userID)
	if err != nil {
		return models.JoinRequest{}, fmt.Errorf("membership check: %w", err)
	}
	if member {
		return models.JoinRequest{}, conflict("already a member of group %q", g.Name)
	}

	jr, err := e.joinRequests.Create(ctx, g.ID, userID, e.clock())
	if errors.Is(err, joinrequeststore.ErrDuplicatePending) {
		return models.JoinRequest{}, conflict("a join request for group %q is already pending", g.Name)
	}
	if err != nil {
		return models.JoinRequest{}, fmt.Errorf("create join request: %w", err)
	}

	e.metrics.IncrementJoinRequest(models.JoinRequestPending, "")
	e.audit.JoinRequest(ctx, audit.EventJoinRequestSubmitted, userID, userID, g.ID, jr.ID, "")
	return jr, nil
}

// ResolveJoinRequest approves or rejects a pending request on behalf of
// resolverID.
//
// Group admins and moderators of the target group may always resolve. A
// platform admin may resolve only while the group has no admin at all; while
// it has one the call fails with ErrInvalidState. The authority check runs in
// the same transaction as the resolution.
//
// Approval re-runs the exclusivity check. If it refuses, nothing is written
// and the request stays pending.
func (e *Engine) ResolveJoinRequest(ctx context.Context, requestID primitive.ObjectID, action string, resolverID primitive.ObjectID, note string) (JoinRequestOutcome, error) {
	defer e.metrics.ObserveOperation("resolve_join_request", time.Now())

	if action != JoinRequestApprove && action != JoinRequestReject {
		return JoinRequestOutcome{}, invalidInput("unknown join request action %q", action)
	}
	jr, err := e.joinRequests.GetByID(ctx, requestID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return JoinRequestOutcome{}, notFound("join request not found")
	}
	if err != nil {
		return JoinRequestOutcome{}, fmt.Errorf("load join request: %w", err)
	}
	if jr.Status != models.JoinRequestPending {
		return JoinRequestOutcome{}, invalidState("join request is already %s", jr.Status)
	}
	g, err := e.loadGroup(ctx, jr.GroupID)
	if err != nil {
		return JoinRequestOutcome{}, err
	}
	note = htmlsanitize.PlainText(note)

	var (
		authority grouppolicy.Authority
		res       JoinResult
	)
	status := models.JoinRequestRejected
	if action == JoinRequestApprove {
		status = models.JoinRequestApproved
	}

	err = e.inTxn(ctx, func(ctx context.Context) error {
		var err error
		authority, err = e.joinRequestAuthority(ctx, resolverID, g)
		if err != nil {
			return err
		}
		if status == models.JoinRequestApproved && !g.IsActive() {
			return invalidState("group %q is not active", g.Name)
		}

		// The membership goes first so a refused approval has written nothing.
		reason := note
		if status == models.JoinRequestApproved {
			reason = ""
			if res, err = e.addMember(ctx, g, jr.UserID, models.RoleMember); err != nil {
				return err
			}
		}
		won, err := e.joinRequests.Resolve(ctx, jr.ID, status, resolverID, reason, e.clock())
		if err != nil {
			return fmt.Errorf("resolve join request: %w", err)
		}
		if !won {
			return invalidState("join request is no longer pending")
		}
		return nil
	})
	if err != nil {
		e.afterRefusedJoin(ctx, err, ViaJoinRequest)
		return JoinRequestOutcome{}, err
	}

	now := e.clock()
	jr.Status = status
	jr.ResolvedBy = &resolverID
	jr.ResolvedAt = &now
	out := JoinRequestOutcome{Request: jr, Authority: authority.String()}

	e.metrics.IncrementJoinRequest(status, authority.String())
	if status == models.JoinRequestApproved {
		out.Join = &res
		e.afterJoin(ctx, resolverID, jr.UserID, g, res, ViaJoinRequest)
		e.audit.JoinRequest(ctx, audit.EventJoinRequestApproved, resolverID, jr.UserID, g.ID, jr.ID, authority.String())
		if authority == grouppolicy.AuthorityPlatform {
			e.audit.JoinRequest(ctx, audit.EventPlatformAdminApproval, resolverID, jr.UserID, g.ID, jr.ID, authority.String())
		}
		e.notify(ctx, models.Notification{
			UserID:  jr.UserID,
			Type:    models.NotifyJoinRequestApproved,
			Title:   "Join request approved",
			Message: fmt.Sprintf("Your request to join %s was approved.", g.Name),
			RefType: "join_request",
			RefID:   jr.ID,
		})
		return out, nil
	}

	jr.RejectionReason = note
	out.Request = jr
	e.audit.JoinRequest(ctx, audit.EventJoinRequestRejected, resolverID, jr.UserID, g.ID, jr.ID, authority.String())
	msg := fmt.Sprintf("Your request to join %s was declined.", g.Name)
	if note != "" {
		msg += " Reason: " + note
	}
	e.notify(ctx, models.Notification{
		UserID:  jr.UserID,
		Type:    models.NotifyJoinRequestRejected,
		Title:   "Join request declined",
		Message: msg,
		RefType: "join_request",
		RefID:   jr.ID,
	})
	return out, nil
}

// joinRequestAuthority resolves which tier lets resolverID act on g.
func (e *Engine) joinRequestAuthority(ctx context.Context, resolverID primitive.ObjectID, g models.Group) (grouppolicy.Authority, error) {
	a, err := e.actor(ctx, resolverID, g.ID)
	if err != nil {
		return grouppolicy.AuthorityNone, err
	}
	admins, err := e.members.CountByGroup(ctx, g.ID, models.RoleAdmin)
	if err != nil {
		return grouppolicy.AuthorityNone, fmt.Errorf("count group admins: %w", err)
	}
	authority, err := grouppolicy.ResolveJoinRequestAuthority(a, admins)
	switch {
	case errors.Is(err, grouppolicy.ErrGroupHasAdmin):
		return grouppolicy.AuthorityNone, invalidState("%s", err.Error())
	case errors.Is(err, grouppolicy.ErrNoAuthority):
		return grouppolicy.AuthorityNone, forbidden("you cannot resolve join requests for group %q", g.Name)
	case err != nil:
		return grouppolicy.AuthorityNone, err
	}
	return authority, nil
}

// ListPendingJoinRequests returns a group's approval queue, oldest first.
// Group admins, moderators, and platform admins may read it.
func (e *Engine) ListPendingJoinRequests(ctx context.Context, groupID, actorID primitive.ObjectID) ([]models.JoinRequest, error) {
	g, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	a, err := e.actor(ctx, actorID, g.ID)
	if err != nil {
		return nil, err
	}
	if !grouppolicy.HasGroupAuthority(a.MemberRole) && !a.IsPlatformAdmin {
		return nil, forbidden("you cannot view join requests for group %q", g.Name)
	}
	return e.joinRequests.ListPendingByGroup(ctx, g.ID)
}

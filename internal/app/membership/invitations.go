// internal/app/membership/invitations.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/guildhall/internal/app/policy/grouppolicy"
	"github.com/dalemusser/guildhall/internal/app/store/audit"
	invitationstore "github.com/dalemusser/guildhall/internal/app/store/invitations"
	"github.com/dalemusser/guildhall/internal/app/system/htmlsanitize"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Invitation actions accepted by ResolveInvitation.
const (
	InvitationAccept  = "accept"
	InvitationDecline = "decline"
	InvitationCancel  = "cancel"
	InvitationResend  = "resend"
)

// InvitationOutcome is the result of ResolveInvitation. Join is set only
// when the invitation was accepted.
type InvitationOutcome struct {
	Invitation models.Invitation `json:"invitation"`
	Join       *JoinResult       `json:"join,omitempty"`
}

// CreateInvitation invites targetUserID into groupID on behalf of actorID.
// The actor needs admin or moderator rights in the group, or platform admin.
// A stale pending invitation (past its expiry) is retired and resolved
// invitations for the pair are deleted before the new one is inserted.
func (e *Engine) CreateInvitation(ctx context.Context, groupID, actorID, targetUserID primitive.ObjectID, message string) (models.Invitation, error) {
	defer e.metrics.ObserveOperation("create_invitation", time.Now())

	g, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return models.Invitation{}, err
	}
	if err := e.requireInvitationAuthority(ctx, actorID, g); err != nil {
		return models.Invitation{}, err
	}
	if !g.IsActive() {
		return models.Invitation{}, invalidState("group %q is not active", g.Name)
	}
	if _, err := e.loadUser(ctx, targetUserID); err != nil {
		return models.Invitation{}, err
	}
	message = htmlsanitize.PlainText(message)

	var inv models.Invitation
	err = e.inTxn(ctx, func(ctx context.Context) error {
		now := e.clock()

		member, err := e.members.Exists(ctx, g.ID, targetUserID)
		if err != nil {
			return fmt.Errorf("membership check: %w", err)
		}
		if member {
			return conflict("user is already a member of group %q", g.Name)
		}

		existing, err := e.invitations.FindPending(ctx, g.ID, targetUserID)
		switch {
		case err == nil:
			if !existing.IsExpired(now) {
				return conflict("user already has a pending invitation to group %q", g.Name)
			}
			if _, err := e.invitations.Transition(ctx, existing.ID, models.InvitationPending, models.InvitationExpired, now); err != nil {
				return fmt.Errorf("retire expired invitation: %w", err)
			}
		case !errors.Is(err, mongo.ErrNoDocuments):
			return fmt.Errorf("pending invitation check: %w", err)
		}

		if _, err := e.invitations.DeleteResolved(ctx, g.ID, targetUserID); err != nil {
			return fmt.Errorf("delete resolved invitations: %w", err)
		}

		inv, err = e.invitations.Create(ctx, g.ID, targetUserID, actorID, message, e.invitationTTL, now)
		if errors.Is(err, invitationstore.ErrDuplicatePending) {
			return conflict("user already has a pending invitation to group %q", g.Name)
		}
		return err
	})
	if err != nil {
		return models.Invitation{}, err
	}

	e.metrics.IncrementInvitation(models.InvitationPending)
	e.audit.Invitation(ctx, audit.EventInvitationCreated, actorID, targetUserID, g.ID, inv.ID)
	e.notify(ctx, models.Notification{
		UserID:  targetUserID,
		Type:    models.NotifyInvitationReceived,
		Title:   "Group invitation",
		Message: invitationMessage(g, inv.Message),
		RefType: "invitation",
		RefID:   inv.ID,
	})
	return inv, nil
}

func invitationMessage(g models.Group, note string) string {
	msg := fmt.Sprintf("You have been invited to join %s.", g.Name)
	if note != "" {
		msg += " " + note
	}
	return msg
}

func (e *Engine) requireInvitationAuthority(ctx context.Context, actorID primitive.ObjectID, g models.Group) error {
	a, err := e.actor(ctx, actorID, g.ID)
	if err != nil {
		return err
	}
	if !grouppolicy.CanManageInvitations(a) {
		return forbidden("only group admins, moderators, or platform admins can manage invitations for %q", g.Name)
	}
	return nil
}

// ResolveInvitation applies action to an invitation on behalf of actorID.
//
//   - accept and decline are the invited user's; the invitation must still be
//     pending and unexpired. Accepting runs the same membership path as
//     JoinGroup, so a refused join leaves the invitation pending.
//   - cancel and resend need the same authority as creation. Cancel works on
//     an unexpired pending invitation; resend works on pending or expired
//     ones and moves the expiry forward.
func (e *Engine) ResolveInvitation(ctx context.Context, invitationID primitive.ObjectID, action string, actorID primitive.ObjectID) (InvitationOutcome, error) {
	defer e.metrics.ObserveOperation("resolve_invitation", time.Now())

	switch action {
	case InvitationAccept, InvitationDecline, InvitationCancel, InvitationResend:
	default:
		return InvitationOutcome{}, invalidInput("unknown invitation action %q", action)
	}
	inv, err := e.invitations.GetByID(ctx, invitationID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return InvitationOutcome{}, notFound("invitation not found")
	}
	if err != nil {
		return InvitationOutcome{}, fmt.Errorf("load invitation: %w", err)
	}
	g, err := e.loadGroup(ctx, inv.GroupID)
	if err != nil {
		return InvitationOutcome{}, err
	}

	switch action {
	case InvitationAccept:
		return e.acceptInvitation(ctx, inv, g, actorID)
	case InvitationDecline:
		return e.declineInvitation(ctx, inv, g, actorID)
	case InvitationCancel:
		return e.cancelInvitation(ctx, inv, g, actorID)
	default:
		return e.resendInvitation(ctx, inv, g, actorID)
	}
}

func (e *Engine) requireInvitee(inv models.Invitation, actorID primitive.ObjectID, now time.Time) error {
	if inv.UserID != actorID {
		return forbidden("only the invited user can respond to this invitation")
	}
	if status := inv.EffectiveStatus(now); status != models.InvitationPending {
		return invalidState("invitation is %s", status)
	}
	return nil
}

func (e *Engine) acceptInvitation(ctx context.Context, inv models.Invitation, g models.Group, actorID primitive.ObjectID) (InvitationOutcome, error) {
	if err := e.requireInvitee(inv, actorID, e.clock()); err != nil {
		return InvitationOutcome{}, err
	}
	if !g.IsActive() {
		return InvitationOutcome{}, invalidState("group %q is not active", g.Name)
	}

	var res JoinResult
	err := e.inTxn(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.addMember(ctx, g, inv.UserID, models.RoleMember)
		if err != nil {
			return err
		}
		won, err := e.invitations.Transition(ctx, inv.ID, models.InvitationPending, models.InvitationAccepted, e.clock())
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		if !won {
			return invalidState("invitation is no longer pending")
		}
		return nil
	})
	if err != nil {
		e.afterRefusedJoin(ctx, err, ViaInvitation)
		return InvitationOutcome{}, err
	}

	e.afterJoin(ctx, inv.UserID, inv.UserID, g, res, ViaInvitation)
	e.metrics.IncrementInvitation(models.InvitationAccepted)
	e.audit.Invitation(ctx, audit.EventInvitationAccepted, actorID, inv.UserID, g.ID, inv.ID)
	e.notify(ctx, models.Notification{
		UserID:  inv.InvitedBy,
		Type:    models.NotifyInvitationAccepted,
		Title:   "Invitation accepted",
		Message: fmt.Sprintf("Your invitation to %s was accepted.", g.Name),
		RefType: "invitation",
		RefID:   inv.ID,
	})

	inv.Status = models.InvitationAccepted
	return InvitationOutcome{Invitation: inv, Join: &res}, nil
}

func (e *Engine) declineInvitation(ctx context.Context, inv models.Invitation, g models.Group, actorID primitive.ObjectID) (InvitationOutcome, error) {
	now := e.clock()
	if err := e.requireInvitee(inv, actorID, now); err != nil {
		return InvitationOutcome{}, err
	}
	if err := e.transitionPending(ctx, inv.ID, models.InvitationRejected, now); err != nil {
		return InvitationOutcome{}, err
	}

	e.metrics.IncrementInvitation(models.InvitationRejected)
	e.audit.Invitation(ctx, audit.EventInvitationDeclined, actorID, inv.UserID, g.ID, inv.ID)
	e.notify(ctx, models.Notification{
		UserID:  inv.InvitedBy,
		Type:    models.NotifyInvitationDeclined,
		Title:   "Invitation declined",
		Message: fmt.Sprintf("Your invitation to %s was declined.", g.Name),
		RefType: "invitation",
		RefID:   inv.ID,
	})

	inv.Status = models.InvitationRejected
	return InvitationOutcome{Invitation: inv}, nil
}

func (e *Engine) cancelInvitation(ctx context.Context, inv models.Invitation, g models.Group, actorID primitive.ObjectID) (InvitationOutcome, error) {
	if err := e.requireInvitationAuthority(ctx, actorID, g); err != nil {
		return InvitationOutcome{}, err
	}
	now := e.clock()
	if status := inv.EffectiveStatus(now); status != models.InvitationPending {
		return InvitationOutcome{}, invalidState("cannot cancel an invitation that is %s", status)
	}
	if err := e.transitionPending(ctx, inv.ID, models.InvitationCancelled, now); err != nil {
		return InvitationOutcome{}, err
	}

	e.metrics.IncrementInvitation(models.InvitationCancelled)
	e.audit.Invitation(ctx, audit.EventInvitationCancelled, actorID, inv.UserID, g.ID, inv.ID)
	e.notify(ctx, models.Notification{
		UserID:  inv.UserID,
		Type:    models.NotifyInvitationCancelled,
		Title:   "Invitation cancelled",
		Message: fmt.Sprintf("Your invitation to %s was cancelled.", g.Name),
		RefType: "invitation",
		RefID:   inv.ID,
	})

	inv.Status = models.InvitationCancelled
	return InvitationOutcome{Invitation: inv}, nil
}

// transitionPending moves a pending invitation to status, reporting
// InvalidState when another caller resolved it first.
func (e *Engine) transitionPending(ctx context.Context, id primitive.ObjectID, status string, now time.Time) error {
	won, err := e.invitations.Transition(ctx, id, models.InvitationPending, status, now)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	if !won {
		return invalidState("invitation is no longer pending")
	}
	return nil
}

func (e *Engine) resendInvitation(ctx context.Context, inv models.Invitation, g models.Group, actorID primitive.ObjectID) (InvitationOutcome, error) {
	if err := e.requireInvitationAuthority(ctx, actorID, g); err != nil {
		return InvitationOutcome{}, err
	}
	if inv.Status != models.InvitationPending && inv.Status != models.InvitationExpired {
		return InvitationOutcome{}, invalidState("cannot resend an invitation that is %s", inv.Status)
	}

	var out models.Invitation
	err := e.inTxn(ctx, func(ctx context.Context) error {
		member, err := e.members.Exists(ctx, g.ID, inv.UserID)
		if err != nil {
			return fmt.Errorf("membership check: %w", err)
		}
		if member {
			return conflict("user is already a member of group %q", g.Name)
		}
		out, err = e.invitations.Reissue(ctx, inv.ID, actorID, e.invitationTTL, e.clock())
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return invalidState("invitation can no longer be resent")
		case errors.Is(err, invitationstore.ErrDuplicatePending):
			return conflict("user already has a newer pending invitation to group %q", g.Name)
		case err != nil:
			return fmt.Errorf("reissue invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvitationOutcome{}, err
	}

	e.metrics.IncrementInvitation(models.InvitationPending)
	e.audit.Invitation(ctx, audit.EventInvitationResent, actorID, out.UserID, g.ID, out.ID)
	e.notify(ctx, models.Notification{
		UserID:  out.UserID,
		Type:    models.NotifyInvitationResent,
		Title:   "Group invitation",
		Message: invitationMessage(g, out.Message),
		RefType: "invitation",
		RefID:   out.ID,
	})
	return InvitationOutcome{Invitation: out}, nil
}

// ListPendingInvitationsForUser returns the invitations userID can still act on.
func (e *Engine) ListPendingInvitationsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Invitation, error) {
	return e.invitations.ListPendingForUser(ctx, userID, e.clock())
}

// ListGroupInvitations returns a group's invitations for someone who may
// manage them. Status is the stored status; an empty status lists all.
func (e *Engine) ListGroupInvitations(ctx context.Context, groupID, actorID primitive.ObjectID, status string) ([]models.Invitation, error) {
	g, err := e.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := e.requireInvitationAuthority(ctx, actorID, g); err != nil {
		return nil, err
	}
	return e.invitations.ListByGroup(ctx, g.ID, status)
}

// ExpireInvitations persists "expired" on every pending invitation past its
// expiry. The sweep worker calls it; reads apply the same rule lazily.
func (e *Engine) ExpireInvitations(ctx context.Context) (int64, error) {
	n, err := e.invitations.ExpireOverdue(ctx, e.clock())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.metrics.AddInvitationsExpired(n)
		e.audit.InvitationsExpired(ctx, n)
	}
	return n, nil
}

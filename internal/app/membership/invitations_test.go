package membership

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inviteSetup struct {
	group  models.Group
	admin  models.User
	target models.User
}

func setupInvite(t *testing.T, env *testEnv, opts testutil.GroupOpts) inviteSetup {
	t.Helper()
	ctx := ctxFor(t)
	g := env.fixtures.CreateGroup(ctx, "Designers", opts)
	admin := env.fixtures.CreateMember(ctx, "Admin")
	env.fixtures.AddMembership(ctx, g, admin.ID, models.RoleAdmin)
	return inviteSetup{group: g, admin: admin, target: env.fixtures.CreateMember(ctx, "Wren")}
}

func TestCreateInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	inv, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "<b>Welcome</b> aboard")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("status = %q, want pending", inv.Status)
	}
	if want := env.clock().Add(models.InvitationTTL); !inv.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", inv.ExpiresAt, want)
	}
	if inv.Message != "Welcome aboard" {
		t.Errorf("message not sanitized: %q", inv.Message)
	}

	notes, err := env.engine.notifications.ListByUser(ctx, s.target.ID, false, 10)
	if err != nil {
		t.Fatalf("ListByUser notifications failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Type != models.NotifyInvitationReceived || notes[0].RefID != inv.ID {
		t.Fatalf("expected one invitation notification, got %+v", notes)
	}
	if !strings.Contains(notes[0].Message, "Designers") {
		t.Errorf("notification message = %q", notes[0].Message)
	}
}

func TestCreateInvitation_Authority(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	plain := env.fixtures.CreateMember(ctx, "Plain")
	env.fixtures.AddMembership(ctx, s.group, plain.ID, models.RoleMember)
	moderator := env.fixtures.CreateMember(ctx, "Mod")
	env.fixtures.AddMembership(ctx, s.group, moderator.ID, models.RoleModerator)
	platform := env.fixtures.CreatePlatformAdmin(ctx, "Root")

	_, err := env.engine.CreateInvitation(ctx, s.group.ID, plain.ID, s.target.ID, "")
	wantKind(t, err, ErrForbidden)
	_, err = env.engine.CreateInvitation(ctx, s.group.ID, primitive.NewObjectID(), s.target.ID, "")
	wantKind(t, err, ErrForbidden)

	if _, err := env.engine.CreateInvitation(ctx, s.group.ID, moderator.ID, s.target.ID, ""); err != nil {
		t.Errorf("moderator should be able to invite: %v", err)
	}
	other := env.fixtures.CreateMember(ctx, "Other")
	if _, err := env.engine.CreateInvitation(ctx, s.group.ID, platform.ID, other.ID, ""); err != nil {
		t.Errorf("platform admin should be able to invite: %v", err)
	}
}

func TestCreateInvitation_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	_, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.admin.ID, "")
	wantKind(t, err, ErrConflict)

	if _, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, ""); err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	_, err = env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	wantKind(t, err, ErrConflict)

	_, err = env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, primitive.NewObjectID(), "")
	wantKind(t, err, ErrNotFound)
	_, err = env.engine.CreateInvitation(ctx, primitive.NewObjectID(), s.admin.ID, s.target.ID, "")
	wantKind(t, err, ErrNotFound)
}

func TestCreateInvitation_ReplacesResolvedAndStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	first, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	if _, err := env.engine.ResolveInvitation(ctx, first.ID, InvitationDecline, s.target.ID); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	second, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("re-invite after decline failed: %v", err)
	}

	// Let the second one lapse without the sweep persisting it.
	env.advance(models.InvitationTTL + time.Hour)
	third, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("re-invite over a stale pending invitation failed: %v", err)
	}

	all, err := env.engine.invitations.ListByGroup(ctx, s.group.ID, "")
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != third.ID {
		t.Errorf("expected only the newest invitation to remain, got %d rows", len(all))
	}
	if second.ID == third.ID {
		t.Error("expected a fresh invitation row")
	}
}

func TestAcceptInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	cat := env.fixtures.CreateCategory(ctx, "Studio", "location")
	s := setupInvite(t, env, testutil.GroupOpts{Kind: models.GroupKindProfessional, CategoryID: &cat.ID})

	inv, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	// Only the invitee can accept.
	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationAccept, s.admin.ID)
	wantKind(t, err, ErrForbidden)

	out, err := env.engine.ResolveInvitation(ctx, inv.ID, InvitationAccept, s.target.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if out.Invitation.Status != models.InvitationAccepted || out.Join == nil || !out.Join.CategoryAssigned {
		t.Errorf("unexpected outcome: %+v", out)
	}

	stored, _ := env.engine.invitations.GetByID(ctx, inv.ID)
	if stored.Status != models.InvitationAccepted || stored.RespondedAt == nil {
		t.Errorf("stored invitation = %+v", stored)
	}
	if got := memberCount(t, env, ctx, s.group.ID); got != 2 {
		t.Errorf("member_count = %d, want 2", got)
	}
	ps, _ := env.engine.privacy.Get(ctx, s.target.ID)
	if ps.ShowLocation {
		t.Error("accepting into a bound group should cascade")
	}

	notes, _ := env.engine.notifications.ListByUser(ctx, s.admin.ID, false, 10)
	if len(notes) != 1 || notes[0].Type != models.NotifyInvitationAccepted {
		t.Errorf("inviter notifications = %+v", notes)
	}

	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationAccept, s.target.ID)
	wantKind(t, err, ErrInvalidState)
}

func TestAcceptInvitation_ExclusivityKeepsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{Kind: models.GroupKindProfessional})

	teachers := env.fixtures.CreateProfessionalGroup(ctx, "Teachers", nil)
	env.fixtures.AddMembership(ctx, teachers, s.target.ID, models.RoleMember)

	inv, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationAccept, s.target.ID)
	wantKind(t, err, ErrExclusivityViolation)

	stored, _ := env.engine.invitations.GetByID(ctx, inv.ID)
	if stored.Status != models.InvitationPending {
		t.Errorf("invitation status = %q, want pending", stored.Status)
	}
	if got := memberCount(t, env, ctx, s.group.ID); got != 1 {
		t.Errorf("member_count = %d, want 1", got)
	}
	alerts, _ := env.engine.alerts.ListByUser(ctx, s.target.ID)
	if len(alerts) != 1 || alerts[0].Metadata["via"] != ViaInvitation {
		t.Errorf("expected one invitation-path alert, got %+v", alerts)
	}
}

func TestAcceptInvitation_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	inv, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	env.advance(models.InvitationTTL + time.Minute)

	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationAccept, s.target.ID)
	wantKind(t, err, ErrInvalidState)
	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationCancel, s.admin.ID)
	wantKind(t, err, ErrInvalidState)
}

func TestDeclineAndCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	inv, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	// The invitee has no authority to cancel.
	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationCancel, s.target.ID)
	wantKind(t, err, ErrForbidden)

	out, err := env.engine.ResolveInvitation(ctx, inv.ID, InvitationCancel, s.admin.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if out.Invitation.Status != models.InvitationCancelled {
		t.Errorf("status = %q, want cancelled", out.Invitation.Status)
	}
	notes, _ := env.engine.notifications.ListByUser(ctx, s.target.ID, false, 10)
	var cancelled bool
	for _, n := range notes {
		cancelled = cancelled || n.Type == models.NotifyInvitationCancelled
	}
	if !cancelled {
		t.Error("invitee was not notified of the cancellation")
	}

	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationDecline, s.target.ID)
	wantKind(t, err, ErrInvalidState)
	_, err = env.engine.ResolveInvitation(ctx, inv.ID, InvitationResend, s.admin.ID)
	wantKind(t, err, ErrInvalidState)

	_, err = env.engine.ResolveInvitation(ctx, inv.ID, "shrug", s.admin.ID)
	wantKind(t, err, ErrInvalidInput)
	_, err = env.engine.ResolveInvitation(ctx, primitive.NewObjectID(), InvitationAccept, s.target.ID)
	wantKind(t, err, ErrNotFound)
}

// The action is checked before any lookup, so a bad action on a missing
// invitation is invalid input rather than not found.
func TestResolveInvitation_UnknownActionFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)

	_, err := env.engine.ResolveInvitation(ctx, primitive.NewObjectID(), "shrug", primitive.NewObjectID())
	wantKind(t, err, ErrInvalidInput)
	if errors.Is(err, ErrNotFound) {
		t.Errorf("unknown action on a missing invitation reported not found: %v", err)
	}
}

// An invitation resent after it lapsed returns to pending with a fresh
// expiry and no second row.
func TestResendAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	inv, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, "")
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	env.advance(models.InvitationTTL + 24*time.Hour)
	if n, err := env.engine.ExpireInvitations(ctx); err != nil || n != 1 {
		t.Fatalf("ExpireInvitations = %d, %v; want 1", n, err)
	}
	stored, _ := env.engine.invitations.GetByID(ctx, inv.ID)
	if stored.Status != models.InvitationExpired {
		t.Fatalf("status after sweep = %q, want expired", stored.Status)
	}

	out, err := env.engine.ResolveInvitation(ctx, inv.ID, InvitationResend, s.admin.ID)
	if err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if out.Invitation.Status != models.InvitationPending {
		t.Errorf("status = %q, want pending", out.Invitation.Status)
	}
	if want := env.clock().Add(models.InvitationTTL); !out.Invitation.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", out.Invitation.ExpiresAt, want)
	}
	if out.Invitation.ReissuedBy == nil || *out.Invitation.ReissuedBy != s.admin.ID {
		t.Error("reissuer not recorded")
	}
	if out.Invitation.InvitedBy != s.admin.ID {
		t.Error("original inviter should be kept")
	}

	all, _ := env.engine.invitations.ListByGroup(ctx, s.group.ID, "")
	if len(all) != 1 {
		t.Errorf("expected 1 invitation row, got %d", len(all))
	}

	if _, err := env.engine.ResolveInvitation(ctx, inv.ID, InvitationAccept, s.target.ID); err != nil {
		t.Errorf("accepting the resent invitation failed: %v", err)
	}
}

func TestListInvitations(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxFor(t)
	s := setupInvite(t, env, testutil.GroupOpts{})

	if _, err := env.engine.CreateInvitation(ctx, s.group.ID, s.admin.ID, s.target.ID, ""); err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	mine, err := env.engine.ListPendingInvitationsForUser(ctx, s.target.ID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListPendingInvitationsForUser = %d, %v", len(mine), err)
	}

	_, err = env.engine.ListGroupInvitations(ctx, s.group.ID, s.target.ID, "")
	wantKind(t, err, ErrForbidden)
	list, err := env.engine.ListGroupInvitations(ctx, s.group.ID, s.admin.ID, models.InvitationPending)
	if err != nil || len(list) != 1 {
		t.Errorf("ListGroupInvitations = %d, %v", len(list), err)
	}

	env.advance(models.InvitationTTL + time.Hour)
	mine, _ = env.engine.ListPendingInvitationsForUser(ctx, s.target.ID)
	if len(mine) != 0 {
		t.Errorf("expired invitations should not be listed, got %d", len(mine))
	}
}

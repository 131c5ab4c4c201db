package groups_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/guildhall/internal/app/features/groups"
	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/app/system/ratelimit"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*groups.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	handler := groups.NewHandler(membership.New(db, logger), logger)
	t.Cleanup(handler.Invites.Stop)
	return handler, testutil.NewFixtures(t, db)
}

func withGroup(r *http.Request, id primitive.ObjectID) *http.Request {
	return testutil.WithChiURLParam(r, "groupID", id.Hex())
}

func TestHandleJoin_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fixtures.CreateCategory(ctx, "Clinical", "phone")
	g := fixtures.CreateProfessionalGroup(ctx, "Nurses", &cat.ID)
	u := fixtures.CreateMember(ctx, "Ada")

	req := withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/groups/x/join", nil, u), g.ID)
	rec := testutil.NewRecorder()
	handler.HandleJoin(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	var res membership.JoinResult
	rec.DecodeJSON(t, &res)
	if !res.CategoryAssigned || res.Membership.GroupID != g.ID {
		t.Errorf("unexpected join result: %+v", res)
	}
}

func TestHandleJoin_Exclusivity(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teachers := fixtures.CreateProfessionalGroup(ctx, "Teachers", nil)
	nurses := fixtures.CreateProfessionalGroup(ctx, "Nurses", nil)
	u := fixtures.CreateMember(ctx, "Ada")
	fixtures.AddMembership(ctx, teachers, u.ID, models.RoleMember)

	req := withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/groups/x/join", nil, u), nurses.ID)
	rec := testutil.NewRecorder()
	handler.HandleJoin(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
	var body map[string]string
	rec.DecodeJSON(t, &body)
	if body["error"] != "exclusivity_violation" || body["held_group_id"] != teachers.ID.Hex() || body["held_group_name"] != "Teachers" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHandleJoin_Errors(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Ada")
	g := fixtures.CreateGroup(ctx, "Book Club", testutil.GroupOpts{})

	rec := testutil.NewRecorder()
	handler.HandleJoin(rec, withGroup(testutil.NewJSONRequest(t, "POST", "/", nil), g.ID))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	handler.HandleJoin(rec, testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), "groupID", "nope"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	handler.HandleJoin(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), primitive.NewObjectID()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	handler.HandleJoin(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	handler.HandleJoin(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleLeave(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Ada")
	g := fixtures.CreateGroup(ctx, "Book Club", testutil.GroupOpts{})
	fixtures.AddMembership(ctx, g, u.ID, models.RoleMember)

	rec := testutil.NewRecorder()
	handler.HandleLeave(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	handler.HandleLeave(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleCreateInvitation(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Designers", testutil.GroupOpts{})
	admin := fixtures.CreateMember(ctx, "Admin")
	fixtures.AddMembership(ctx, g, admin.ID, models.RoleAdmin)
	plain := fixtures.CreateMember(ctx, "Plain")
	target := fixtures.CreateMember(ctx, "Wren")

	body := map[string]string{"user_id": target.ID.Hex(), "message": "<script>x</script>Join us"}

	rec := testutil.NewRecorder()
	handler.HandleCreateInvitation(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", body, plain), g.ID))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	handler.HandleCreateInvitation(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", body, admin), g.ID))
	rec.AssertStatus(t, http.StatusCreated)
	var inv models.Invitation
	rec.DecodeJSON(t, &inv)
	if inv.UserID != target.ID || inv.Status != models.InvitationPending {
		t.Errorf("unexpected invitation: %+v", inv)
	}
	if inv.Message != "Join us" {
		t.Errorf("message = %q, want sanitized", inv.Message)
	}

	rec = testutil.NewRecorder()
	handler.HandleCreateInvitation(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", body, admin), g.ID))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	handler.HandleCreateInvitation(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", map[string]string{"user_id": "bad"}, admin), g.ID))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	handler.ServeGroupInvitations(rec, withGroup(testutil.NewAuthenticatedRequest(t, "GET", "/?status=pending", nil, admin), g.ID))
	rec.AssertStatus(t, http.StatusOK)
	var list struct {
		Invitations []models.Invitation `json:"invitations"`
	}
	rec.DecodeJSON(t, &list)
	if len(list.Invitations) != 1 {
		t.Errorf("expected 1 invitation, got %d", len(list.Invitations))
	}

	rec = testutil.NewRecorder()
	handler.ServeGroupInvitations(rec, withGroup(testutil.NewAuthenticatedRequest(t, "GET", "/?status=bogus", nil, admin), g.ID))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestJoinRequestEndpoints(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Nurses", testutil.GroupOpts{RequiresApproval: true})
	admin := fixtures.CreateMember(ctx, "Admin")
	fixtures.AddMembership(ctx, g, admin.ID, models.RoleAdmin)
	u := fixtures.CreateMember(ctx, "Ada")

	rec := testutil.NewRecorder()
	handler.HandleSubmitJoinRequest(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	handler.HandleSubmitJoinRequest(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	handler.ServeJoinRequests(rec, withGroup(testutil.NewAuthenticatedRequest(t, "GET", "/", nil, u), g.ID))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	handler.ServeJoinRequests(rec, withGroup(testutil.NewAuthenticatedRequest(t, "GET", "/", nil, admin), g.ID))
	rec.AssertStatus(t, http.StatusOK)
	var list struct {
		JoinRequests []models.JoinRequest `json:"join_requests"`
	}
	rec.DecodeJSON(t, &list)
	if len(list.JoinRequests) != 1 || list.JoinRequests[0].UserID != u.ID {
		t.Errorf("unexpected queue: %+v", list.JoinRequests)
	}
}

func TestHandleCreateInvitation_RateLimited(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	handler.Invites = ratelimit.New(1, time.Minute)
	defer handler.Invites.Stop()

	g := fixtures.CreateGroup(ctx, "Writers", testutil.GroupOpts{})
	admin := fixtures.CreateMember(ctx, "Admin")
	fixtures.AddMembership(ctx, g, admin.ID, models.RoleAdmin)
	first := fixtures.CreateMember(ctx, "First")
	second := fixtures.CreateMember(ctx, "Second")

	rec := testutil.NewRecorder()
	handler.HandleCreateInvitation(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", map[string]string{"user_id": first.ID.Hex()}, admin), g.ID))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	handler.HandleCreateInvitation(rec, withGroup(testutil.NewAuthenticatedRequest(t, "POST", "/", map[string]string{"user_id": second.ID.Hex()}, admin), g.ID))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

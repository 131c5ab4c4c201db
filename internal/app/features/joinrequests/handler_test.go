package joinrequests_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/guildhall/internal/app/features/joinrequests"
	"github.com/dalemusser/guildhall/internal/app/membership"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func resolveRequest(t *testing.T, id primitive.ObjectID, body any, u models.User) *http.Request {
	req := testutil.NewAuthenticatedRequest(t, "POST", "/join-requests/"+id.Hex()+"/resolve", body, u)
	return testutil.WithChiURLParam(req, "id", id.Hex())
}

func TestHandleResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	engine := membership.New(db, logger)
	handler := joinrequests.NewHandler(engine, logger)
	fixtures := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Orphans", testutil.GroupOpts{RequiresApproval: true})
	root := fixtures.CreatePlatformAdmin(ctx, "Root")
	plain := fixtures.CreateMember(ctx, "Plain")
	u := fixtures.CreateMember(ctx, "Ada")

	jr, err := engine.SubmitJoinRequest(ctx, g.ID, u.ID)
	if err != nil {
		t.Fatalf("SubmitJoinRequest failed: %v", err)
	}

	rec := testutil.NewRecorder()
	handler.HandleResolve(rec, resolveRequest(t, jr.ID, map[string]string{"action": "approve"}, plain))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	handler.HandleResolve(rec, resolveRequest(t, jr.ID, map[string]string{"action": "Approve"}, root))
	rec.AssertStatus(t, http.StatusOK)

	var out membership.JoinRequestOutcome
	rec.DecodeJSON(t, &out)
	if out.Authority != "platform" || out.Request.Status != models.JoinRequestApproved {
		t.Errorf("unexpected outcome: %+v", out)
	}

	rec = testutil.NewRecorder()
	handler.HandleResolve(rec, resolveRequest(t, jr.ID, map[string]string{"action": "reject"}, root))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleResolve_BadInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	handler := joinrequests.NewHandler(membership.New(db, logger), logger)
	fixtures := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateMember(ctx, "Ada")

	rec := testutil.NewRecorder()
	handler.HandleResolve(rec, resolveRequest(t, primitive.NewObjectID(), nil, u))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	handler.HandleResolve(rec, resolveRequest(t, primitive.NewObjectID(), map[string]string{"action": "approve"}, u))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	handler.HandleResolve(rec, resolveRequest(t, primitive.NewObjectID(), map[string]string{"action": "defer"}, u))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

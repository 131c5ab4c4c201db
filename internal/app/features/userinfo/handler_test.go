package userinfo_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/guildhall/internal/app/features/userinfo"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*userinfo.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return userinfo.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/user", nil)
	rec := testutil.NewRecorder()

	handler.ServeUserInfo(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}

	var response map[string]any
	rec.DecodeJSON(t, &response)
	if isAuth, ok := response["isAuthenticated"].(bool); !ok || isAuth {
		t.Errorf("isAuthenticated: got %v, want false", response["isAuthenticated"])
	}
	if _, present := response["memberships"]; present {
		t.Error("memberships should be absent when signed out")
	}
}

func TestServeUserInfo_Authenticated(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateMember(ctx, "Test User")
	pro := fixtures.CreateProfessionalGroup(ctx, "Surgeons", nil)
	club := fixtures.CreateGroup(ctx, "Book Club", testutil.GroupOpts{})
	fixtures.AddMembership(ctx, pro, user.ID, models.RoleMember)
	fixtures.AddMembership(ctx, club, user.ID, models.RoleModerator)

	rec := testutil.NewRecorder()
	handler.ServeUserInfo(rec, testutil.NewAuthenticatedRequest(t, "GET", "/api/user", nil, user))
	rec.AssertStatus(t, http.StatusOK)

	var response struct {
		IsAuthenticated bool   `json:"isAuthenticated"`
		ID              string `json:"id"`
		Name            string `json:"name"`
		Memberships     []struct {
			GroupID        string `json:"group_id"`
			Role           string `json:"role"`
			IsProfessional bool   `json:"is_professional"`
		} `json:"memberships"`
	}
	rec.DecodeJSON(t, &response)

	if !response.IsAuthenticated || response.ID != user.ID.Hex() || response.Name != "Test User" {
		t.Errorf("unexpected identity: %+v", response)
	}
	if len(response.Memberships) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(response.Memberships))
	}
	professional := 0
	for _, m := range response.Memberships {
		if m.IsProfessional {
			professional++
			if m.GroupID != pro.ID.Hex() || m.Role != models.RoleMember {
				t.Errorf("unexpected professional membership: %+v", m)
			}
		}
	}
	if professional != 1 {
		t.Errorf("expected 1 professional membership, got %d", professional)
	}
}

package indexes_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/guildhall/internal/app/system/indexes"
	"github.com/dalemusser/guildhall/internal/testutil"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func listIndexNames(t *testing.T, ctx context.Context, c *mongo.Collection) map[string]bool {
	t.Helper()
	cur, err := c.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("third EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expected := map[string][]string{
		"users":                    {"uniq_users_email", "idx_users_role_status_fullnameci_id"},
		"groups":                   {"uniq_groups_nameci", "idx_groups_kind_status_nameci__id", "idx_groups_category"},
		"group_memberships":        {indexes.IndexMembershipUserGroup, indexes.IndexMembershipProfessionalUser, "idx_gm_group_role_user", "idx_gm_user_role_kind"},
		"group_invitations":        {indexes.IndexInvitationPending, "idx_inv_user_status_expires", "idx_inv_status_expires"},
		"group_join_requests":      {indexes.IndexJoinRequestPending, "idx_jr_group_status_created"},
		"sensitive_job_categories": {"uniq_sjc_name"},
		"user_privacy_settings":    {"uniq_ups_user"},
		"privacy_audit_log":        {"idx_pal_user_ts"},
		"admin_alerts":             {"idx_alerts_resolved_created", "idx_alerts_user_created"},
		"notifications":            {indexes.IndexNotificationDedupe, "idx_notifications_user_read_created"},
		"audit_events":             {"idx_audit_ts", "idx_audit_user_ts", "idx_audit_group_ts", "idx_audit_category_type_ts"},
	}

	for coll, names := range expected {
		got := listIndexNames(t, ctx, db.Collection(coll))
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_ProfessionalMemberIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("group_memberships")
	userID := primitive.NewObjectID()
	insert := func(kind, role string) error {
		_, err := c.InsertOne(ctx, bson.M{
			"group_id":   primitive.NewObjectID(),
			"user_id":    userID,
			"group_kind": kind,
			"role":       role,
			"created_at": time.Now().UTC(),
		})
		return err
	}

	if err := insert("professional", "member"); err != nil {
		t.Fatalf("first professional member insert failed: %v", err)
	}
	// Admin/moderator roles and generic groups fall outside the partial filter.
	if err := insert("professional", "admin"); err != nil {
		t.Errorf("professional admin insert failed: %v", err)
	}
	if err := insert("professional", "moderator"); err != nil {
		t.Errorf("professional moderator insert failed: %v", err)
	}
	if err := insert("generic", "member"); err != nil {
		t.Errorf("generic member insert failed: %v", err)
	}
	if err := insert("professional", "member"); !wafflemongo.IsDup(err) {
		t.Errorf("second professional member insert: expected duplicate key error, got %v", err)
	}
}

func TestEnsureAll_PendingInvitationIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("group_invitations")
	groupID, userID := primitive.NewObjectID(), primitive.NewObjectID()
	insert := func(status string) error {
		_, err := c.InsertOne(ctx, bson.M{"group_id": groupID, "user_id": userID, "status": status})
		return err
	}

	if err := insert("rejected"); err != nil {
		t.Fatalf("insert rejected: %v", err)
	}
	if err := insert("expired"); err != nil {
		t.Fatalf("insert expired: %v", err)
	}
	if err := insert("pending"); err != nil {
		t.Fatalf("insert pending: %v", err)
	}
	if err := insert("pending"); !wafflemongo.IsDup(err) {
		t.Errorf("second pending insert: expected duplicate key error, got %v", err)
	}
}

func TestEnsureAll_DedupeKeyEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("notifications")
	if _, err := c.InsertOne(ctx, bson.M{"dedupe_key": "k1"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"dedupe_key": "k1"}); !wafflemongo.IsDup(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}

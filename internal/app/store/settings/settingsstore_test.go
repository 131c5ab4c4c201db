package settingsstore_test

import (
	"testing"

	settingsstore "github.com/dalemusser/guildhall/internal/app/store/settings"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Get_NoSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settings.SiteName != models.DefaultSiteName {
		t.Errorf("SiteName: got %q, want default %q", settings.SiteName, models.DefaultSiteName)
	}
	if !settings.AllowPrivacyChanges {
		t.Error("privacy changes should be allowed by default")
	}
	exists, _ := store.Exists(ctx)
	if exists {
		t.Error("Get must not create a settings document")
	}
}

func TestStore_Save_And_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adminID := primitive.NewObjectID()
	err := store.Save(ctx, models.SiteSettings{
		SiteName:            "Guildhall Staging",
		AllowPrivacyChanges: false,
		UpdatedByID:         &adminID,
		UpdatedByName:       "Admin",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	saved, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if saved.SiteName != "Guildhall Staging" || saved.AllowPrivacyChanges {
		t.Errorf("unexpected settings: %+v", saved)
	}
	if saved.UpdatedAt == nil {
		t.Error("UpdatedAt should be set")
	}

	saved.AllowPrivacyChanges = true
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	again, _ := store.Get(ctx)
	if !again.AllowPrivacyChanges {
		t.Error("AllowPrivacyChanges should be true after update")
	}
	if again.ID != saved.ID {
		t.Error("settings document id should be stable across saves")
	}
}

package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/guildhall/internal/app/store/users"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Ada   Lovelace ",
		Email:    " ADA@Example.com ",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Ada Lovelace" || created.Email != "ada@example.com" {
		t.Errorf("fields not normalized: %+v", created)
	}
	if created.Role != models.PlatformRoleMember || created.Status != "active" {
		t.Errorf("defaults not applied: role=%q status=%q", created.Role, created.Status)
	}

	got, err := store.GetByEmail(ctx, "Ada@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("GetByEmail returned the wrong user")
	}
	byID, err := store.GetByID(ctx, created.ID)
	if err != nil || byID.Email != created.Email {
		t.Errorf("GetByID = %+v, %v", byID, err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "DUP@example.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "X", Email: "x@example.com", Role: "leader"}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{FullName: "Grace", Email: "grace@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetRole(ctx, u.ID, "Admin"); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.Role != models.PlatformRoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}

	if err := store.SetRole(ctx, u.ID, "leader"); err == nil {
		t.Error("expected error for unknown role")
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), models.PlatformRoleAdmin); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

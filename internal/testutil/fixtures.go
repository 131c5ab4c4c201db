package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given platform role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateMember creates a user with the member platform role and a unique email.
func (f *Fixtures) CreateMember(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, primitive.NewObjectID().Hex()+"@test.com", models.PlatformRoleMember)
}

// CreatePlatformAdmin creates a user with the admin platform role.
func (f *Fixtures) CreatePlatformAdmin(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, primitive.NewObjectID().Hex()+"@test.com", models.PlatformRoleAdmin)
}

// GroupOpts customises CreateGroup.
type GroupOpts struct {
	Kind             string
	RequiresApproval bool
	CategoryID       *primitive.ObjectID
	Status           string
}

// CreateGroup creates a test group. Kind defaults to generic, Status to active.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, opts GroupOpts) models.Group {
	f.t.Helper()

	if opts.Kind == "" {
		opts.Kind = models.GroupKindGeneric
	}
	if opts.Status == "" {
		opts.Status = models.GroupStatusActive
	}
	now := time.Now().UTC()
	g := models.Group{
		ID:                  primitive.NewObjectID(),
		Name:                name,
		NameCI:              text.Fold(name),
		Kind:                opts.Kind,
		RequiresApproval:    opts.RequiresApproval,
		SensitiveCategoryID: opts.CategoryID,
		Status:              opts.Status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateProfessionalGroup creates an active professional group, optionally bound to a category.
func (f *Fixtures) CreateProfessionalGroup(ctx context.Context, name string, categoryID *primitive.ObjectID) models.Group {
	f.t.Helper()
	return f.CreateGroup(ctx, name, GroupOpts{Kind: models.GroupKindProfessional, CategoryID: categoryID})
}

// CreateCategory creates a sensitive job category. Each name in hide turns on
// the matching force_hide_* flag (e.g. "email", "phone").
func (f *Fixtures) CreateCategory(ctx context.Context, name string, hide ...string) models.SensitiveJobCategory {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.SensitiveJobCategory{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, h := range hide {
		switch h {
		case "position":
			c.ForceHidePosition = true
		case "department":
			c.ForceHideDepartment = true
		case "bio":
			c.ForceHideBio = true
		case "location":
			c.ForceHideLocation = true
		case "phone":
			c.ForceHidePhone = true
		case "email":
			c.ForceHideEmail = true
		case "groups":
			c.ForceHideGroups = true
		default:
			f.t.Fatalf("unknown force-hide dimension %q", h)
		}
	}

	if _, err := f.db.Collection("sensitive_job_categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// AddMembership inserts a membership row directly and bumps member_count,
// bypassing the engine's checks. Use it to arrange state.
func (f *Fixtures) AddMembership(ctx context.Context, g models.Group, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   g.ID,
		UserID:    userID,
		GroupKind: g.Kind,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	if _, err := f.db.Collection("groups").UpdateByID(ctx, g.ID, bson.M{"$inc": bson.M{"member_count": 1}}); err != nil {
		f.t.Fatalf("failed to bump member_count: %v", err)
	}
	return m
}

// CreateInvitation inserts an invitation directly with the given status and expiry.
func (f *Fixtures) CreateInvitation(ctx context.Context, groupID, userID, invitedBy primitive.ObjectID, status string, expiresAt time.Time) models.Invitation {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		InvitedBy: invitedBy,
		Status:    status,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("group_invitations").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}

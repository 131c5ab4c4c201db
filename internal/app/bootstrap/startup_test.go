package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/guildhall/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:                "mongodb://localhost:27017",
		MongoDatabase:           "guildhall",
		MongoMaxPoolSize:        100,
		MongoMinPoolSize:        10,
		SessionKey:              "test-session-key-0123456789abcdef0123",
		SessionName:             "guildhall-session",
		SessionMaxAge:           time.Hour,
		AuditLogMembership:      "all",
		AuditLogPrivacy:         "db",
		InvitationTTL:           models.InvitationTTL,
		InvitationSweepInterval: time.Hour,
		MetricsEnabled:          true,
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"missing session key", func(c *AppConfig) { c.SessionKey = "" }, "session_key"},
		{"empty database", func(c *AppConfig) { c.MongoDatabase = " " }, "mongo_database"},
		{"pool sizes inverted", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, "mongo_min_pool_size"},
		{"zero ttl", func(c *AppConfig) { c.InvitationTTL = 0 }, "invitation_ttl"},
		{"negative sweep", func(c *AppConfig) { c.InvitationSweepInterval = -time.Minute }, "invitation_sweep_interval"},
		{"zero session age", func(c *AppConfig) { c.SessionMaxAge = 0 }, "session_max_age"},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogPrivacy = "both" }, "audit_log_privacy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := validateAppConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{GuildhallMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@test.com", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "superadmin@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.PlatformRoleSuperAdmin {
		t.Errorf("expected role 'superadmin', got %q", user.Role)
	}
	if user.Status != "active" {
		t.Errorf("expected status 'active', got %q", user.Status)
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := testutil.NewFixtures(t, db).CreateUser(ctx, "Existing User", "existing@test.com", models.PlatformRoleAdmin)
	deps := DBDeps{GuildhallMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "Existing@Test.com", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != models.PlatformRoleSuperAdmin {
		t.Errorf("expected role 'superadmin', got %q", user.Role)
	}
	n, _ := db.Collection("users").CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("expected no new user, found %d", n)
	}
}

func TestEnsureSuperAdmin_AlreadySuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := testutil.NewFixtures(t, db).CreateUser(ctx, "Super Admin", "superadmin@test.com", models.PlatformRoleSuperAdmin)
	deps := DBDeps{GuildhallMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@test.com", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if !user.UpdatedAt.Equal(existing.UpdatedAt.Truncate(time.Millisecond)) {
		t.Error("expected user to be left unchanged")
	}
}

func TestStartupAndBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	deps := DBDeps{
		GuildhallMongoClient:   db.Client(),
		GuildhallMongoDatabase: db,
		Services:               &Services{},
	}

	if err := Startup(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	defer deps.Services.InvitationSweep.Stop()

	if deps.Services.Engine == nil || deps.Services.Registry == nil {
		t.Fatal("Startup did not populate services")
	}

	h, err := BuildHandler(coreCfg, appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/api/user", http.StatusOK},
		{"GET", "/privacy", http.StatusUnauthorized},
		{"GET", "/invitations", http.StatusUnauthorized},
		{"POST", "/groups/" + strings.Repeat("a", 24) + "/join", http.StatusUnauthorized},
		{"GET", "/admin/audit", http.StatusUnauthorized},
		{"GET", "/admin/settings", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	_, err := BuildHandler(&config.CoreConfig{}, validAppConfig(), DBDeps{}, testLogger())
	if err == nil {
		t.Error("expected error when services are missing")
	}
}

func TestShutdown_NoClient(t *testing.T) {
	if err := Shutdown(context.Background(), &config.CoreConfig{}, validAppConfig(), DBDeps{}, testLogger()); err != nil {
		t.Errorf("Shutdown with empty deps: %v", err)
	}
}

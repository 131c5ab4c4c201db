// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/guildhall/internal/app/system/auditlog"
	"github.com/dalemusser/guildhall/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Guildhall.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: GUILDHALL_MONGO_URI, GUILDHALL_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "guildhall", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "", Desc: "Session signing key (must match the account service; blank generates a throwaway key outside prod)"},
	{Name: "session_name", Default: "guildhall-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},

	// Audit logging settings
	{Name: "audit_log_membership", Default: "all", Desc: "Membership event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_privacy", Default: "all", Desc: "Privacy event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Membership engine
	{Name: "invitation_ttl", Default: "720h", Desc: "How long an invitation stays pending (e.g., 720h)"},
	{Name: "invitation_sweep_interval", Default: "1h", Desc: "How often expired invitations are swept"},
	{Name: "require_transactions", Default: false, Desc: "Refuse to run membership operations without MongoDB transactions"},

	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, GUILDHALL_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GUILDHALL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		// Audit logging
		AuditLogMembership: appValues.String("audit_log_membership"),
		AuditLogPrivacy:    appValues.String("audit_log_privacy"),

		// Membership engine
		InvitationTTL:           appValues.Duration("invitation_ttl", models.InvitationTTL),
		InvitationSweepInterval: appValues.Duration("invitation_sweep_interval", time.Hour),
		RequireTransactions:     appValues.Bool("require_transactions"),

		MetricsEnabled: appValues.Bool("metrics_enabled"),

		// SuperAdmin
		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	// Outside prod a missing key is replaced with a random one so the
	// service starts; cookies from the account service will not verify.
	if appCfg.SessionKey == "" && coreCfg.Env != "prod" {
		appCfg.SessionKey = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("session_key not set; generated a throwaway key for this process")
	}

	return coreCfg, appCfg, nil
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Guildhall validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(appCfg)
}

func validateAppConfig(appCfg AppConfig) error {
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key must be set")
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	for name, d := range map[string]time.Duration{
		"session_max_age":           appCfg.SessionMaxAge,
		"invitation_ttl":            appCfg.InvitationTTL,
		"invitation_sweep_interval": appCfg.InvitationSweepInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	for name, mode := range map[string]string{
		"audit_log_membership": appCfg.AuditLogMembership,
		"audit_log_privacy":    appCfg.AuditLogPrivacy,
	} {
		if !auditModes[mode] {
			return fmt.Errorf("%s must be one of all|db|log|off, got %q", name, mode)
		}
	}
	return nil
}

// auditConfig maps the app config onto the audit logger's routing.
func auditConfig(appCfg AppConfig) auditlog.Config {
	return auditlog.Config{
		Membership: appCfg.AuditLogMembership,
		Privacy:    appCfg.AuditLogPrivacy,
	}
}

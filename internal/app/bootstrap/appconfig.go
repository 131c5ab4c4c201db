// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries everything specific to Guildhall: the MongoDB
// connection, the shared session cookie, audit routing, and the knobs of
// the membership engine.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie shared with the account service
	SessionKey    string        // Secret key for verifying session cookies
	SessionName   string        // Cookie name (default: guildhall-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogMembership string
	AuditLogPrivacy    string

	// Membership engine
	InvitationTTL           time.Duration // How long a new or resent invitation stays pending
	InvitationSweepInterval time.Duration // How often expired invitations are persisted as expired
	RequireTransactions     bool          // Fail instead of running without transactions on standalone mongod

	MetricsEnabled bool // Expose /metrics

	// SuperAdmin bootstrap
	SuperAdminEmail string
}
